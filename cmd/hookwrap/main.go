// Package main is the entry point for the hookwrap command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dshills/hookwrap/hook"
	"github.com/dshills/hookwrap/internal/config"
	"github.com/dshills/hookwrap/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(stdout, stderr).Run(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "hookwrap",
		Usage:     "Wrap a Lua function with before/after hooks",
		Version:   fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "hookwrap.toml", Usage: "Path to configuration file (.toml, .yaml)"},
			&cli.StringFlag{Name: "log-level", Usage: "Override log level (debug, info, warn, error)"},
		},
		Commands: []*cli.Command{
			newRunCommand(),
			newWatchCommand(),
			newStagesCommand(),
		},
	}
}

func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Call the wrapped target with the given arguments",
		ArgsUsage: "[args...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "times", Aliases: []string{"n"}, Value: 1, Usage: "Number of calls"},
			&cli.DurationFlag{Name: "flush-timeout", Value: 5 * time.Second, Usage: "How long to wait for deferred hooks"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, closeLog, err := setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			s, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer s.close(context.Background())

			return invoke(ctx, cmd, s, parseArgs(cmd.Args().Slice()))
		},
	}
}

func newWatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Like run, then reload and call again whenever the config or script changes",
		ArgsUsage: "[args...]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "times", Aliases: []string{"n"}, Value: 1, Usage: "Number of calls per reload"},
			&cli.DurationFlag{Name: "flush-timeout", Value: 5 * time.Second, Usage: "How long to wait for deferred hooks"},
			&cli.DurationFlag{Name: "debounce", Value: 100 * time.Millisecond, Usage: "Quiet period before reloading"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, closeLog, err := setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			args := parseArgs(cmd.Args().Slice())

			s, err := openSession(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { s.close(context.Background()) }()

			if err := invoke(ctx, cmd, s, args); err != nil {
				return err
			}

			w, err := config.NewWatcher(
				config.WithDebounce(cmd.Duration("debounce")),
				config.WithWatcherLogger(logger.With("component", "config")),
			)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := w.Add(cmd.String("config"), cfg.Script.Path); err != nil {
				return err
			}

			logger.Info("watching for changes", "config", cmd.String("config"), "script", cfg.Script.Path)

			return w.Run(ctx, func(path string) {
				logger.Info("reloading", "path", path)

				next, err := reload(cmd, logger)
				if err != nil {
					logger.Error("reload failed", "error", err)
					return
				}
				s.close(context.Background())
				s = next

				if err := w.Add(s.cfg.Script.Path); err != nil {
					logger.Warn("watch script", "error", err)
				}
				if err := invoke(ctx, cmd, s, args); err != nil {
					logger.Error("call failed", "error", err)
				}
			})
		},
	}
}

func newStagesCommand() *cli.Command {
	return &cli.Command{
		Name:  "stages",
		Usage: "List hook stages in execution order",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			for _, stage := range hook.Stages() {
				fmt.Fprintln(cmd.Root().Writer, stage)
			}
			return nil
		},
	}
}

// setup loads the configuration and installs the process logger.
func setup(cmd *cli.Command) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("logging: %w", err)
	}
	logging.Set(logger)

	return cfg, logger, func() { _ = closer.Close() }, nil
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if cmd.IsSet("log-level") {
		level := cmd.String("log-level")
		if !logging.ValidLevel(level) {
			return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", level)
		}
		cfg.Logging.Level = level
	}
	return cfg, nil
}

func reload(cmd *cli.Command, logger *slog.Logger) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return openSession(cfg, logger)
}

// invoke calls the target the requested number of times, waits for the
// deferred hooks and prints one result per line.
func invoke(ctx context.Context, cmd *cli.Command, s *session, args []any) error {
	out := cmd.Root().Writer

	times := cmd.Int("times")
	if times < 1 {
		return fmt.Errorf("times must be at least 1, got %d", times)
	}

	for i := 0; i < times; i++ {
		result, err := s.call(args)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatResult(result))
	}

	flushCtx, cancel := context.WithTimeout(ctx, cmd.Duration("flush-timeout"))
	defer cancel()
	return s.settle(flushCtx)
}

func formatResult(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprint(v)
}
