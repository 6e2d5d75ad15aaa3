package queue

import (
	"strings"

	perrors "github.com/dy604/NettyRPC2.0/pkg/common/errors"
)

// Discipline selects the queue implementation backing a pool.
type Discipline int

const (
	// Unbounded is a FIFO queue without a capacity limit.
	Unbounded Discipline = iota

	// Bounded is a FIFO queue with a hard capacity.
	Bounded

	// Rendezvous is a handoff queue: an offer succeeds only when a consumer is
	// already waiting in Take.
	Rendezvous
)

// Unlimited is the capacity reported by unbounded queues.
const Unlimited = -1

// String returns the canonical name of the discipline.
func (d Discipline) String() string {
	switch d {
	case Unbounded:
		return "Unbounded"
	case Bounded:
		return "Bounded"
	case Rendezvous:
		return "Rendezvous"
	default:
		return "Unknown"
	}
}

// disciplines maps lower-cased names to disciplines. JDK queue names are
// accepted as aliases so existing deployments keep their settings.
var disciplines = map[string]Discipline{
	"unbounded":           Unbounded,
	"linkedblockingqueue": Unbounded,
	"bounded":             Bounded,
	"arrayblockingqueue":  Bounded,
	"rendezvous":          Rendezvous,
	"synchronousqueue":    Rendezvous,
}

// Names returns the canonical discipline names.
func Names() []string {
	return []string{Unbounded.String(), Bounded.String(), Rendezvous.String()}
}

// ParseDiscipline resolves a discipline by name, case-insensitively.
// An empty name selects Unbounded. Unknown names yield a *errors.ConfigError.
func ParseDiscipline(name string) (Discipline, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return Unbounded, nil
	}
	d, ok := disciplines[key]
	if !ok {
		return 0, perrors.NewConfigError("queue discipline", name, Names()...)
	}
	return d, nil
}
