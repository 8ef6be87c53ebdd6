package script

import (
	"github.com/dshills/hookwrap/hook"
)

// Target returns a Go function calling the global Lua function name.
// It returns the first Lua result, or nil when there is none.
func (s *State) Target(name string) (func(args ...any) any, error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return func(args ...any) any {
		results := s.mustCall(name, args...)
		if len(results) == 0 {
			return nil
		}
		return results[0]
	}, nil
}

// BeforeHook returns a before-stage hook calling the global Lua function name.
func (s *State) BeforeHook(name string) (hook.BeforeFunc[any], error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return func(args ...any) {
		s.mustCall(name, args...)
	}, nil
}

// AfterHook returns an after-stage hook calling the global Lua function name
// with the result followed by the arguments.
func (s *State) AfterHook(name string) (hook.AfterFunc[any, any], error) {
	if err := s.check(name); err != nil {
		return nil, err
	}
	return func(result any, args ...any) {
		s.mustCall(name, append([]any{result}, args...)...)
	}, nil
}

// Bind registers the global Lua function name on w for stage.
func (s *State) Bind(w *hook.Wrapper[any, any], stage hook.Stage, name string) error {
	if !stage.Valid() {
		return &hook.StageError{Op: "on", Stage: stage, Err: hook.ErrInvalidStage}
	}
	if stage.IsBefore() {
		h, err := s.BeforeHook(name)
		if err != nil {
			return err
		}
		return w.On(stage, h)
	}

	h, err := s.AfterHook(name)
	if err != nil {
		return err
	}
	return w.On(stage, h)
}

func (s *State) check(name string) error {
	if !s.HasFunction(name) {
		return &CallError{Function: name, Err: ErrNotFunction}
	}
	return nil
}

// mustCall calls name and panics with the *CallError on failure.
func (s *State) mustCall(name string, args ...any) []any {
	results, err := s.Call(name, args...)
	if err != nil {
		panic(err)
	}
	return results
}
