package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"fileutils/internal/config"
	"fileutils/internal/exitcodes"
	"fileutils/internal/history"
	"fileutils/internal/logging"
	"fileutils/internal/treeops"
)

// environment holds what a command needs to run operations
type environment struct {
	cfg     *config.Config
	std     *log.Logger
	logger  logging.Leveled
	history *history.DB
	engine  *treeops.Engine
}

// newEnvironment loads configuration and builds the engine. Logs go to
// console so command output on stdout stays clean.
func newEnvironment(configPath string, console io.Writer) (*environment, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, &exitError{code: exitcodes.InvalidConfig, err: fmt.Errorf("load config: %w", err)}
	}

	std := logging.NewTo(console, cfg)
	zapOutput := "stderr"
	if console == os.Stdout {
		zapOutput = "stdout"
	}
	leveled, err := logging.NewLeveled(cfg, std, zapOutput)
	if err != nil {
		return nil, &exitError{code: exitcodes.InvalidConfig, err: err}
	}

	env := &environment{cfg: cfg, std: std, logger: leveled}
	opts := []treeops.Option{treeops.WithLogger(leveled)}
	if cfg.DatabasePath != "" {
		db, err := history.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open history %s: %w", cfg.DatabasePath, err)
		}
		env.history = db
		opts = append(opts, treeops.WithRecorder(db))
	}
	env.engine = treeops.NewFromConfig(cfg, opts...)
	return env, nil
}

func (env *environment) Close() {
	if env.history != nil {
		if err := env.history.Close(); err != nil {
			env.logger.Error("Failed to close history database", "error", err)
		}
	}
	if z, ok := env.logger.(*logging.Zap); ok {
		_ = z.Sync()
	}
}

// withEnvironment runs fn with a freshly built environment and closes it afterwards
func withEnvironment(opts *rootOptions, fn func(env *environment) error) error {
	env, err := newEnvironment(opts.configPath, os.Stderr)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}
