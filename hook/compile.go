package hook

import "slices"

// recompile installs a handler matching the current queues. Caller holds s.mu.
func (s *state[A, R]) recompile() {
	h := s.compile(s.occupancyLocked())
	s.handler.Store(&h)
}

// compile builds the cheapest handler for occ. With nothing active the
// wrapped function itself is returned. Otherwise stage blocks are layered
// around it from the inside out, so only active stages cost anything.
func (s *state[A, R]) compile(occ occupancy) func(...A) R {
	if occ == 0 {
		return s.fn
	}

	call := s.fn
	if occ.has(occAfter | occOnceAfter) {
		call = s.withAfter(call)
	}
	if occ.has(occBefore) {
		call = withBefore(s.before, call)
	}
	if occ.has(occOnceBefore) {
		call = s.withOnceBefore(call)
	}
	return call
}

// withOnceBefore drains the OnceBefore queue on the first call that gets
// there; later calls find it empty.
func (s *state[A, R]) withOnceBefore(next func(...A) R) func(...A) R {
	return func(args ...A) R {
		s.runOnceBefore(args)
		return next(args...)
	}
}

// runOnceBefore runs the taken OnceBefore hooks. If one panics the queue is
// restored and the panic continues, so the next call runs them again.
func (s *state[A, R]) runOnceBefore(args []A) {
	hooks := s.takeOnceBefore()

	completed := false
	defer func() {
		if !completed {
			s.restoreOnceBefore(hooks)
		}
	}()

	runBefore(hooks, args)
	completed = true
}

func withBefore[A, R any](hooks []BeforeFunc[A], next func(...A) R) func(...A) R {
	return func(args ...A) R {
		runBefore(hooks, args)
		return next(args...)
	}
}

// withAfter schedules the after stages once next has returned. The queues
// are read when the deferred task runs, not when it is scheduled.
func (s *state[A, R]) withAfter(next func(...A) R) func(...A) R {
	return func(args ...A) R {
		result := next(args...)
		args = slices.Clone(args)
		s.sched.Schedule(func() {
			once, every := s.takeAfter()
			s.runOnceAfter(once, result, args)
			runAfter(every, result, args)
		})
		return result
	}
}

// runOnceAfter runs the taken OnceAfter hooks, restoring them if one panics.
func (s *state[A, R]) runOnceAfter(hooks []AfterFunc[A, R], result R, args []A) {
	completed := false
	defer func() {
		if !completed {
			s.restoreOnceAfter(hooks)
		}
	}()

	runAfter(hooks, result, args)
	completed = true
}

func runBefore[A any](hooks []BeforeFunc[A], args []A) {
	for _, h := range hooks {
		h(args...)
	}
}

func runAfter[A, R any](hooks []AfterFunc[A, R], result R, args []A) {
	for _, h := range hooks {
		h(result, args...)
	}
}
