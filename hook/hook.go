package hook

// Wrapper is the public face of a wrapped function. Its Call method forwards
// to whichever handler is installed at the moment of the call.
type Wrapper[A, R any] struct {
	st *state[A, R]
}

// New wraps fn. With no hooks registered, Call runs fn directly.
func New[A, R any](fn func(...A) R, opts ...Option) (*Wrapper[A, R], error) {
	if fn == nil {
		return nil, ErrInvalidInput
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.scheduler == nil {
		o.scheduler = defaultScheduler()
	}

	return &Wrapper[A, R]{st: newState(fn, o)}, nil
}

// Wrap is New returning the invoke, register and clear entries as plain
// functions.
func Wrap[A, R any](fn func(...A) R, opts ...Option) (call func(...A) R, on func(Stage, any) error, off func(Stage) error, err error) {
	w, err := New(fn, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return w.Call, w.On, w.Off, nil
}

// Call invokes the installed handler with args.
func (w *Wrapper[A, R]) Call(args ...A) R {
	return (*w.st.handler.Load())(args...)
}

// On registers h for stage. Before stages take a BeforeFunc[A] (or
// func(...A)); after stages take an AfterFunc[A, R] (or func(R, ...A)).
// A func() is accepted for any stage.
func (w *Wrapper[A, R]) On(stage Stage, h any) error {
	return w.st.register(stage, h)
}

// Off removes every hook registered for stage.
func (w *Wrapper[A, R]) Off(stage Stage) error {
	return w.st.clear(stage)
}

// Count returns the number of hooks queued for stage.
func (w *Wrapper[A, R]) Count(stage Stage) int {
	return w.st.count(stage)
}

// Active returns the stages that currently have hooks, in execution order.
func (w *Wrapper[A, R]) Active() []Stage {
	w.st.mu.Lock()
	occ := w.st.occupancyLocked()
	w.st.mu.Unlock()

	var active []Stage
	for _, s := range Stages() {
		if occ.has(stageBit(s)) {
			active = append(active, s)
		}
	}
	return active
}

// Name returns the label given with WithName.
func (w *Wrapper[A, R]) Name() string {
	return w.st.name
}

// handler returns the installed handler.
func (w *Wrapper[A, R]) handler() func(...A) R {
	return *w.st.handler.Load()
}

func stageBit(s Stage) occupancy {
	switch s {
	case StageOnceBefore:
		return occOnceBefore
	case StageBefore:
		return occBefore
	case StageAfter:
		return occAfter
	case StageOnceAfter:
		return occOnceAfter
	}
	return 0
}
