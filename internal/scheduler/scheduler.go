// Package scheduler runs the configured clear rules on an interval.
package scheduler

import (
	"context"
	"errors"
	"time"

	"fileutils/internal/config"
	"fileutils/internal/logging"
	"fileutils/internal/metrics"
	"fileutils/internal/treeops"
)

// Clearer is the part of treeops.Engine the scheduler drives
type Clearer interface {
	ClearExpired(dir string, maxAge time.Duration, opts ...treeops.ClearOption) (int, error)
	ClearAll(dir string, opts ...treeops.ClearOption) (int, error)
}

// RunOnce applies every clear rule once and returns the total number of
// removed entries. A failing rule does not stop the others; their errors
// are joined.
func RunOnce(ctx context.Context, cfg *config.Config, c Clearer, logger logging.Leveled) (int, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg == nil {
		return 0, errors.New("nil config")
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	start := time.Now()
	metrics.RecordClearCycle()

	var (
		total int
		errs  []error
	)
	for _, rule := range cfg.ClearRules {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		opts := []treeops.ClearOption{treeops.WithExclude(rule.Exclude...)}
		var (
			n   int
			err error
		)
		if rule.All {
			n, err = c.ClearAll(rule.Path, opts...)
		} else {
			n, err = c.ClearExpired(rule.Path, rule.MaxAge, opts...)
		}
		metrics.RecordRuleResult(rule.Path, n, err)
		total += n

		if err != nil {
			logger.Warn("Clear rule finished with errors", "path", rule.Path, "removed", n, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Debug("Clear rule finished", "path", rule.Path, "removed", n)
	}

	logger.Info("Clear cycle complete",
		"rules", len(cfg.ClearRules),
		"removed", total,
		"duration", time.Since(start).Round(time.Millisecond))
	return total, errors.Join(errs...)
}

// Run clears once immediately, then again on every interval tick and every
// value received from trigger, until ctx is done. trigger may be nil.
func Run(ctx context.Context, cfg *config.Config, c Clearer, logger logging.Leveled, trigger <-chan struct{}) error {
	if logger == nil {
		logger = logging.Nop{}
	}
	if cfg == nil {
		return errors.New("nil config")
	}

	runCycle := func(reason string) {
		if _, err := RunOnce(ctx, cfg, c, logger); err != nil && ctx.Err() == nil {
			logger.Error("Clear cycle failed", "reason", reason, "error", err)
		}
	}

	runCycle("startup")

	ticker := time.NewTicker(cfg.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			runCycle("interval")
		case <-trigger:
			runCycle("trigger")
		}
	}
}
