package hook

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/hookwrap/taskq"
)

// BeforeFunc is a hook for the OnceBefore and Before stages.
// It receives the arguments of the call.
type BeforeFunc[A any] func(args ...A)

// AfterFunc is a hook for the After and OnceAfter stages.
// It receives the result of the call followed by its arguments.
type AfterFunc[A, R any] func(result R, args ...A)

// state is everything owned by one wrapped function.
type state[A, R any] struct {
	fn     func(...A) R
	sched  taskq.Scheduler
	logger *slog.Logger
	name   string

	// Queues are replaced, never mutated in place, so a compiled handler
	// may keep a slice it was built from.
	mu         sync.Mutex
	onceBefore []BeforeFunc[A]
	before     []BeforeFunc[A]
	after      []AfterFunc[A, R]
	onceAfter  []AfterFunc[A, R]

	handler atomic.Pointer[func(...A) R]
}

func newState[A, R any](fn func(...A) R, o options) *state[A, R] {
	s := &state[A, R]{
		fn:     fn,
		sched:  o.scheduler,
		logger: o.logger,
		name:   o.name,
	}
	s.handler.Store(&s.fn)
	return s
}

// register appends h to the stage queue and rebuilds the handler.
func (s *state[A, R]) register(stage Stage, h any) error {
	if !stage.Valid() {
		return &StageError{Op: "on", Stage: stage, Err: ErrInvalidStage}
	}

	var (
		before BeforeFunc[A]
		after  AfterFunc[A, R]
		ok     bool
	)
	if stage.IsBefore() {
		before, ok = asBefore[A](h)
	} else {
		after, ok = asAfter[A, R](h)
	}
	if !ok {
		return &StageError{Op: "on", Stage: stage, Err: ErrInvalidHook}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch stage {
	case StageOnceBefore:
		s.onceBefore = appendHook(s.onceBefore, before)
	case StageBefore:
		s.before = appendHook(s.before, before)
	case StageAfter:
		s.after = appendHook(s.after, after)
	case StageOnceAfter:
		s.onceAfter = appendHook(s.onceAfter, after)
	}
	s.recompile()

	s.logger.Debug("hook registered", "wrapper", s.name, "stage", stage, "count", s.countLocked(stage))
	return nil
}

// clear drops every hook of the stage and rebuilds the handler.
func (s *state[A, R]) clear(stage Stage) error {
	if !stage.Valid() {
		return &StageError{Op: "off", Stage: stage, Err: ErrInvalidStage}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch stage {
	case StageOnceBefore:
		s.onceBefore = nil
	case StageBefore:
		s.before = nil
	case StageAfter:
		s.after = nil
	case StageOnceAfter:
		s.onceAfter = nil
	}
	s.recompile()

	s.logger.Debug("hook stage cleared", "wrapper", s.name, "stage", stage)
	return nil
}

// takeOnceBefore removes and returns the OnceBefore queue.
func (s *state[A, R]) takeOnceBefore() []BeforeFunc[A] {
	s.mu.Lock()
	defer s.mu.Unlock()

	hooks := s.onceBefore
	if hooks != nil {
		s.onceBefore = nil
		s.recompile()
	}
	return hooks
}

// takeAfter removes the OnceAfter queue and returns it together with the
// After queue, both read at the same moment.
func (s *state[A, R]) takeAfter() (once, every []AfterFunc[A, R]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	once, every = s.onceAfter, s.after
	if once != nil {
		s.onceAfter = nil
		s.recompile()
	}
	return once, every
}

// restoreOnceBefore puts taken OnceBefore hooks that did not all complete
// back at the front of the queue.
func (s *state[A, R]) restoreOnceBefore(hooks []BeforeFunc[A]) {
	if len(hooks) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.onceBefore = append(slices.Clip(hooks), s.onceBefore...)
	s.recompile()
}

// restoreOnceAfter puts taken OnceAfter hooks that did not all complete
// back at the front of the queue.
func (s *state[A, R]) restoreOnceAfter(hooks []AfterFunc[A, R]) {
	if len(hooks) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.onceAfter = append(slices.Clip(hooks), s.onceAfter...)
	s.recompile()
}

// occupancyLocked returns the set of non-empty stages. Caller holds s.mu.
func (s *state[A, R]) occupancyLocked() occupancy {
	var occ occupancy
	if len(s.onceBefore) > 0 {
		occ |= occOnceBefore
	}
	if len(s.before) > 0 {
		occ |= occBefore
	}
	if len(s.after) > 0 {
		occ |= occAfter
	}
	if len(s.onceAfter) > 0 {
		occ |= occOnceAfter
	}
	return occ
}

func (s *state[A, R]) count(stage Stage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(stage)
}

func (s *state[A, R]) countLocked(stage Stage) int {
	switch stage {
	case StageOnceBefore:
		return len(s.onceBefore)
	case StageBefore:
		return len(s.before)
	case StageAfter:
		return len(s.after)
	case StageOnceAfter:
		return len(s.onceAfter)
	}
	return 0
}

// appendHook returns a new slice so that earlier snapshots are unaffected.
func appendHook[T any](q []T, h T) []T {
	return append(q[:len(q):len(q)], h)
}

func asBefore[A any](h any) (BeforeFunc[A], bool) {
	switch f := h.(type) {
	case BeforeFunc[A]:
		return f, f != nil
	case func(...A):
		return f, f != nil
	case func():
		if f == nil {
			return nil, false
		}
		return func(...A) { f() }, true
	}
	return nil, false
}

func asAfter[A, R any](h any) (AfterFunc[A, R], bool) {
	switch f := h.(type) {
	case AfterFunc[A, R]:
		return f, f != nil
	case func(R, ...A):
		return f, f != nil
	case func():
		if f == nil {
			return nil, false
		}
		return func(R, ...A) { f() }, true
	}
	return nil, false
}
