// rpcpool runs a worker pool configured the way an RPC server configures its
// handler pool, drives it with a synthetic request load, and publishes health
// snapshots to the configured exporters.
//
// Usage:
//
//	rpcpool [--config pool.yaml] [--workers 16] [--policy Abort] [--queue Unbounded]
//	        [--rate 200] [--duration 30s] [--log-file /var/log/rpcpool.log]
//
// Settings are read from the config file, then RPCPOOL_* environment
// variables, then flags. Prometheus metrics are served on metrics.listen
// when the prometheus exporter is enabled.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dy604/NettyRPC2.0/pkg/config/poolconf"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := createApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rpcpool: %v\n", err)
		os.Exit(1)
	}
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "rpcpool",
		Usage:   "run a monitored RPC handler pool under synthetic load",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML or JSON settings file",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "number of pool workers",
			},
			&cli.StringFlag{
				Name:  "policy",
				Usage: "admission policy (Abort, CallerRuns, Blocking, Discard, RejectNotify)",
			},
			&cli.StringFlag{
				Name:  "queue",
				Usage: "queue discipline (Unbounded, Bounded, Rendezvous)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write logs to this file, rotated by size",
			},
			&cli.IntFlag{
				Name:  "rate",
				Usage: "synthetic requests per second, 0 disables the load generator",
				Value: 200,
			},
			&cli.DurationFlag{
				Name:  "work",
				Usage: "simulated handling time per request",
				Value: 20 * time.Millisecond,
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "stop after this long, 0 runs until interrupted",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			return run(ctx, cfg, loadOptions{
				Rate:     int(cmd.Int("rate")),
				Work:     cmd.Duration("work"),
				Duration: cmd.Duration("duration"),
			})
		},
	}
}

// loadSettings layers flags over the file and environment settings.
func loadSettings(cmd *cli.Command) (poolconf.Config, error) {
	var (
		cfg poolconf.Config
		err error
	)
	if path := cmd.String("config"); path != "" {
		cfg, err = poolconf.LoadFile(path, os.Environ())
	} else {
		cfg, err = poolconf.Load(nil, poolconf.FormatYAML, os.Environ())
	}
	if err != nil {
		return poolconf.Config{}, err
	}

	if cmd.IsSet("workers") {
		cfg.Pool.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("policy") {
		cfg.Pool.Policy = cmd.String("policy")
	}
	if cmd.IsSet("queue") {
		cfg.Pool.Queue = cmd.String("queue")
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}

	if err := cfg.Validate(); err != nil {
		return poolconf.Config{}, err
	}
	return cfg, nil
}

// errStopped is the cause attached to the run context once the configured
// duration has elapsed.
var errStopped = errors.New("run duration elapsed")
