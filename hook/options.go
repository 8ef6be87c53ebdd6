package hook

import (
	"log/slog"

	"github.com/dshills/hookwrap/internal/logging"
	"github.com/dshills/hookwrap/taskq"
)

// Option configures a Wrapper.
type Option func(*options)

type options struct {
	scheduler taskq.Scheduler
	logger    *slog.Logger
	name      string
}

func defaultOptions() options {
	return options{
		logger: logging.Component("hook"),
	}
}

// WithScheduler sets where deferred after-stage work runs.
// Defaults to taskq.Default().
func WithScheduler(s taskq.Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.scheduler = s
		}
	}
}

// WithLogger sets the logger used for registry changes.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithName labels the wrapper in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func defaultScheduler() taskq.Scheduler {
	return taskq.Default()
}
