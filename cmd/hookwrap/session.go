package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dshills/hookwrap/hook"
	"github.com/dshills/hookwrap/internal/config"
	"github.com/dshills/hookwrap/internal/script"
	"github.com/dshills/hookwrap/taskq"
)

// session is one loaded script with its target wrapped and hooks bound.
type session struct {
	cfg     *config.Config
	state   *script.State
	wrapper *hook.Wrapper[any, any]
	logger  *slog.Logger

	// Exactly one of queue and loop is set, following cfg.Scheduler.Mode.
	queue *taskq.Queue
	loop  *taskq.Loop
}

// openSession loads the script named by cfg and binds its hooks.
func openSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	timeout, err := cfg.CallTimeout()
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		logger: logger,
		state: script.NewState(
			script.WithCallTimeout(timeout),
			script.WithLogger(logger.With("component", "script")),
		),
	}

	var sched taskq.Scheduler
	switch cfg.Scheduler.Mode {
	case config.SchedulerQueue:
		s.queue = taskq.NewQueue()
		sched = s.queue
	default:
		s.loop = taskq.NewLoop(taskq.WithLogger(logger.With("component", "taskq")))
		if err := s.loop.Start(); err != nil {
			s.state.Close()
			return nil, err
		}
		sched = s.loop
	}

	if err := s.load(sched); err != nil {
		s.close(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *session) load(sched taskq.Scheduler) error {
	if err := s.state.DoFile(s.cfg.Script.Path); err != nil {
		return fmt.Errorf("load script %s: %w", s.cfg.Script.Path, err)
	}

	target, err := s.state.Target(s.cfg.Script.Target)
	if err != nil {
		return fmt.Errorf("script target: %w", err)
	}

	s.wrapper, err = hook.New(target,
		hook.WithScheduler(sched),
		hook.WithLogger(s.logger.With("component", "hook")),
		hook.WithName(s.cfg.Script.Target),
	)
	if err != nil {
		return err
	}

	return s.bind()
}

// bind clears every stage and registers the configured hooks in order.
func (s *session) bind() error {
	for _, stage := range hook.Stages() {
		if err := s.wrapper.Off(stage); err != nil {
			return err
		}
	}

	for i, b := range s.cfg.Hooks {
		stage, err := b.ParsedStage()
		if err != nil {
			return fmt.Errorf("hooks[%d]: %w", i, err)
		}
		if err := s.state.Bind(s.wrapper, stage, b.Function); err != nil {
			return fmt.Errorf("hooks[%d]: %w", i, err)
		}
	}

	s.logger.Debug("hooks bound", "target", s.cfg.Script.Target, "count", len(s.cfg.Hooks), "active", s.wrapper.Active())
	return nil
}

// call invokes the wrapped target. A Lua error raised by the target or a
// before hook is returned instead of panicking.
func (s *session) call(args []any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("call panicked: %v", r)
		}
	}()
	return s.wrapper.Call(args...), nil
}

// settle runs or waits for all deferred after-stage work.
func (s *session) settle(ctx context.Context) (err error) {
	if s.loop != nil {
		return s.loop.Flush(ctx)
	}

	defer func() {
		if r := recover(); r != nil {
			panicErr, ok := r.(*taskq.PanicError)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("after hook: %w", panicErr)
		}
	}()
	s.queue.Drain()
	return nil
}

// close stops the scheduler and releases the Lua state.
func (s *session) close(ctx context.Context) {
	if s.loop != nil && s.loop.IsRunning() {
		if err := s.loop.Stop(ctx); err != nil {
			s.logger.Warn("stop scheduler", "error", err)
		}
	}
	s.state.Close()
}
