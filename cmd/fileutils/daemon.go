package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fileutils/internal/metrics"
	"fileutils/internal/scheduler"
)

func newDaemonCommand(opts *rootOptions) *cobra.Command {
	var once bool

	command := &cobra.Command{
		Use:   "daemon",
		Short: "Apply the configured clear rules periodically and serve metrics",
		Long: `Apply the clear_rules of the configuration every interval_minutes and
serve Prometheus metrics on prometheus.port. POST /trigger on the metrics
port starts a cycle immediately.`,
		Args: positional(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := newEnvironment(opts.configPath, os.Stdout)
			if err != nil {
				return err
			}
			defer env.Close()
			return runDaemon(env, once)
		},
	}
	command.Flags().BoolVar(&once, "once", false, "Run the clear rules once and exit")
	return command
}

func runDaemon(env *environment, once bool) error {
	cfg := env.cfg
	env.logger.Info("fileutils daemon starting",
		"rules", len(cfg.ClearRules),
		"interval", cfg.Interval(),
		"history", cfg.DatabasePath != "")
	if len(cfg.ClearRules) == 0 {
		env.logger.Warn("No clear_rules configured, cycles will do nothing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		_, err := scheduler.RunOnce(ctx, cfg, env.engine, env.logger)
		return err
	}

	metrics.Init()
	trigger := make(chan struct{}, 1)
	metrics.SetTriggerChannel(trigger)
	if cfg.Prometheus.Port > 0 {
		metrics.StartServer(cfg.PrometheusAddress(), env.std)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metrics.Shutdown(shutdownCtx, env.std)
		}()
	}

	err := scheduler.Run(ctx, cfg, env.engine, env.logger, trigger)
	if errors.Is(err, context.Canceled) {
		env.logger.Info("fileutils daemon stopped")
		return nil
	}
	return err
}
