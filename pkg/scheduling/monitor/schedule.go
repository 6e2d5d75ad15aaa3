package monitor

import (
	"time"

	"github.com/robfig/cron/v3"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
)

// parser accepts standard five-field expressions, an optional leading seconds
// field, and descriptors such as "@every 5s" or "@hourly". Descriptors round
// to whole seconds; use Every for sub-second periods.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// periodSchedule fires at a fixed period. Unlike cron's "@every", it keeps
// sub-second precision.
type periodSchedule time.Duration

func (p periodSchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(p))
}

// Every returns a schedule firing every period.
func Every(period time.Duration) cron.Schedule {
	return periodSchedule(period)
}

// ParseSchedule parses a cron expression into a sampling schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, perrors.NewValidationError("monitor", "schedule", expr, err.Error()).
			WithHint(`use a cron expression such as "*/5 * * * * *" or "@every 1s"`)
	}
	return sched, nil
}
