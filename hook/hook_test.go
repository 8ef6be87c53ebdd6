package hook

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/hookwrap/internal/logging"
	"github.com/dshills/hookwrap/taskq"
)

func sum(xs ...int) int {
	return xs[0] + xs[1]
}

// newSum wraps sum on a deterministic queue.
func newSum(t *testing.T) (*Wrapper[int, int], *taskq.Queue) {
	t.Helper()
	q := taskq.NewQueue()
	w, err := New(sum, WithScheduler(q), WithLogger(logging.Discard()), WithName("sum"))
	require.NoError(t, err)
	return w, q
}

func funcPtr(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func TestNew_NilFunc(t *testing.T) {
	w, err := New[int, int](nil)
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrInvalidInput)

	call, on, off, err := Wrap[int, int](nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, call)
	assert.Nil(t, on)
	assert.Nil(t, off)
}

func TestWrap_ReturnsEntries(t *testing.T) {
	q := taskq.NewQueue()
	call, on, off, err := Wrap(sum, WithScheduler(q), WithLogger(logging.Discard()))
	require.NoError(t, err)

	var log []string
	require.NoError(t, on(StageBefore, func(...int) { log = append(log, "x") }))
	assert.Equal(t, 3, call(1, 2))
	require.NoError(t, off(StageBefore))
	assert.Equal(t, 7, call(3, 4))
	assert.Equal(t, []string{"x"}, log)
}

func TestCall_NoHooksIsIdentity(t *testing.T) {
	w, _ := newSum(t)

	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
	assert.Equal(t, 3, w.Call(1, 2))
	assert.Empty(t, w.Active())
}

func TestOnOff_InvalidStage(t *testing.T) {
	w, _ := newSum(t)

	err := w.On("bogus", func(...int) {})
	require.ErrorIs(t, err, ErrInvalidStage)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "on", stageErr.Op)
	assert.Equal(t, Stage("bogus"), stageErr.Stage)

	err = w.Off("bogus")
	require.ErrorIs(t, err, ErrInvalidStage)
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "off", stageErr.Op)

	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
}

func TestOn_InvalidHook(t *testing.T) {
	w, _ := newSum(t)

	tests := []struct {
		name  string
		stage Stage
		hook  any
	}{
		{"number", StageBefore, 42},
		{"string", StageAfter, "a"},
		{"nil", StageBefore, nil},
		{"nil before func", StageOnceBefore, BeforeFunc[int](nil)},
		{"nil after func", StageOnceAfter, AfterFunc[int, int](nil)},
		{"nil plain func", StageAfter, (func())(nil)},
		{"after signature on before stage", StageBefore, func(int, ...int) {}},
		{"before signature on after stage", StageAfter, func(...int) {}},
		{"wrong arg type", StageBefore, func(...string) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.On(tt.stage, tt.hook)
			assert.ErrorIs(t, err, ErrInvalidHook)
		})
	}

	assert.Empty(t, w.Active())
}

func TestOff_EmptyStageIsNoop(t *testing.T) {
	w, _ := newSum(t)

	for _, s := range Stages() {
		assert.NoError(t, w.Off(s))
	}
	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
}

func TestBefore_RunsOnEveryCall(t *testing.T) {
	w, _ := newSum(t)

	var log []string
	require.NoError(t, w.On(StageBefore, func(...int) { log = append(log, "x") }))

	for i := 0; i < 4; i++ {
		assert.Equal(t, 3, w.Call(1, 2))
	}
	assert.Len(t, log, 4)
}

func TestBefore_ReceivesArgsInOrderBeforeCall(t *testing.T) {
	var order []string
	q := taskq.NewQueue()
	w, err := New(func(xs ...int) int {
		order = append(order, "hooked")
		return xs[0] + xs[1]
	}, WithScheduler(q), WithLogger(logging.Discard()))
	require.NoError(t, err)

	var seen [][]int
	require.NoError(t, w.On(StageBefore, func(xs ...int) {
		order = append(order, "before1")
		seen = append(seen, xs)
	}))
	require.NoError(t, w.On(StageBefore, BeforeFunc[int](func(xs ...int) {
		order = append(order, "before2")
	})))
	require.NoError(t, w.On(StageOnceBefore, func(xs ...int) {
		order = append(order, "oncebefore")
		seen = append(seen, xs)
	}))

	assert.Equal(t, 3, w.Call(1, 2))
	assert.Equal(t, []string{"oncebefore", "before1", "before2", "hooked"}, order)
	assert.Equal(t, [][]int{{1, 2}, {1, 2}}, seen)
}

func TestOnceBefore_FiresOnce(t *testing.T) {
	w, _ := newSum(t)

	var fired int
	require.NoError(t, w.On(StageOnceBefore, func() { fired++ }))

	for i := 0; i < 4; i++ {
		assert.Equal(t, 3, w.Call(1, 2))
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, w.Count(StageOnceBefore))
}

func TestOnceBefore_DrainRestoresIdentity(t *testing.T) {
	w, _ := newSum(t)

	require.NoError(t, w.On(StageOnceBefore, func(...int) {}))
	assert.NotEqual(t, funcPtr(sum), funcPtr(w.handler()))

	w.Call(1, 2)
	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
}

func TestOnceBefore_ReRegisterFiresAgain(t *testing.T) {
	w, _ := newSum(t)

	var fired int
	hook := func() { fired++ }

	require.NoError(t, w.On(StageOnceBefore, hook))
	w.Call(1, 2)
	w.Call(1, 2)
	require.NoError(t, w.On(StageOnceBefore, hook))
	w.Call(1, 2)
	w.Call(1, 2)

	assert.Equal(t, 2, fired)
}

func TestAfter_RunsAfterReturn(t *testing.T) {
	var order []string
	q := taskq.NewQueue()
	w, err := New(func(xs ...int) int {
		order = append(order, "hooked")
		return xs[0] + xs[1]
	}, WithScheduler(q), WithLogger(logging.Discard()))
	require.NoError(t, err)

	var got [][]int
	require.NoError(t, w.On(StageAfter, func(r int, xs ...int) {
		order = append(order, "after")
		got = append(got, append([]int{r}, xs...))
	}))

	result := w.Call(1, 2)
	assert.Equal(t, 3, result)
	assert.Empty(t, got, "after hook must not run before the call returns")
	assert.Equal(t, 1, q.Len())

	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, [][]int{{3, 1, 2}}, got)
	assert.Equal(t, []string{"hooked", "after"}, order)
}

func TestAfter_RunsOnEveryCall(t *testing.T) {
	w, q := newSum(t)

	var fired int
	require.NoError(t, w.On(StageAfter, func() { fired++ }))

	for i := 0; i < 4; i++ {
		w.Call(1, 2)
	}
	q.Drain()
	assert.Equal(t, 4, fired)
}

func TestOnceAfter_FiresOnceAcrossBackToBackCalls(t *testing.T) {
	w, q := newSum(t)

	var got [][]int
	require.NoError(t, w.On(StageOnceAfter, AfterFunc[int, int](func(r int, xs ...int) {
		got = append(got, append([]int{r}, xs...))
	})))

	assert.Equal(t, 3, w.Call(1, 2))
	assert.Equal(t, 7, w.Call(3, 4))
	assert.Equal(t, 2, q.Len())

	q.Drain()
	assert.Equal(t, [][]int{{3, 1, 2}}, got)
}

func TestOnceAfter_FiresOnceOverManyCalls(t *testing.T) {
	w, q := newSum(t)

	var fired int
	require.NoError(t, w.On(StageOnceAfter, func(int, ...int) { fired++ }))

	for i := 0; i < 4; i++ {
		w.Call(1, 2)
	}
	q.Drain()
	for i := 0; i < 4; i++ {
		w.Call(1, 2)
	}
	q.Drain()

	assert.Equal(t, 1, fired)
	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
}

func TestAfter_OnceAfterRunsFirst(t *testing.T) {
	w, q := newSum(t)

	var order []string
	require.NoError(t, w.On(StageAfter, func() { order = append(order, "after") }))
	require.NoError(t, w.On(StageOnceAfter, func() { order = append(order, "onceafter") }))

	w.Call(1, 2)
	q.Drain()
	assert.Equal(t, []string{"onceafter", "after"}, order)
}

func TestAfter_QueuesReadWhenTaskRuns(t *testing.T) {
	w, q := newSum(t)

	var fired int
	require.NoError(t, w.On(StageAfter, func() { fired++ }))
	w.Call(1, 2)
	require.NoError(t, w.Off(StageAfter))

	q.Drain()
	assert.Equal(t, 0, fired)
}

func TestAfter_ArgsAreCopied(t *testing.T) {
	w, q := newSum(t)

	var got []int
	require.NoError(t, w.On(StageAfter, func(r int, xs ...int) { got = append([]int{r}, xs...) }))

	args := []int{1, 2}
	w.Call(args...)
	args[0] = 100

	q.Drain()
	assert.Equal(t, []int{3, 1, 2}, got)
}

func TestOff_AllStagesRestoresIdentity(t *testing.T) {
	w, q := newSum(t)

	var fired int
	require.NoError(t, w.On(StageBefore, func() { fired++ }))
	require.NoError(t, w.On(StageOnceBefore, func() { fired++ }))
	require.NoError(t, w.On(StageAfter, func() { fired++ }))
	require.NoError(t, w.On(StageOnceAfter, func() { fired++ }))
	assert.Equal(t, Stages(), w.Active())

	for _, s := range Stages() {
		require.NoError(t, w.Off(s))
	}

	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
	assert.Equal(t, 3, w.Call(1, 2))
	assert.Equal(t, 0, q.Drain())
	assert.Equal(t, 0, fired)
}

func TestCount(t *testing.T) {
	w, _ := newSum(t)

	h := func() {}
	require.NoError(t, w.On(StageBefore, h))
	require.NoError(t, w.On(StageBefore, h))
	require.NoError(t, w.On(StageAfter, h))

	assert.Equal(t, 2, w.Count(StageBefore))
	assert.Equal(t, 1, w.Count(StageAfter))
	assert.Equal(t, 0, w.Count(StageOnceAfter))
	assert.Equal(t, 0, w.Count("bogus"))
	assert.Equal(t, []Stage{StageBefore, StageAfter}, w.Active())
	assert.Equal(t, "sum", w.Name())
}

func TestBefore_PanicAbortsCall(t *testing.T) {
	var called bool
	q := taskq.NewQueue()
	w, err := New(func(xs ...int) int {
		called = true
		return 0
	}, WithScheduler(q), WithLogger(logging.Discard()))
	require.NoError(t, err)

	var second bool
	require.NoError(t, w.On(StageBefore, func() { panic("boom") }))
	require.NoError(t, w.On(StageBefore, func() { second = true }))

	assert.PanicsWithValue(t, "boom", func() { w.Call(1, 2) })
	assert.False(t, called)
	assert.False(t, second)
}

func TestOnceBefore_PanicKeepsHooksQueued(t *testing.T) {
	w, _ := newSum(t)

	var order []string
	fired := 0
	require.NoError(t, w.On(StageOnceBefore, func(...int) { order = append(order, "a") }))
	require.NoError(t, w.On(StageOnceBefore, func(...int) {
		fired++
		order = append(order, "b")
		if fired == 1 {
			panic("boom")
		}
	}))

	assert.PanicsWithValue(t, "boom", func() { w.Call(1, 2) })
	assert.Equal(t, 2, w.Count(StageOnceBefore))

	// Hooks added after the failure queue behind the restored ones.
	require.NoError(t, w.On(StageOnceBefore, func(...int) { order = append(order, "c") }))

	assert.Equal(t, 3, w.Call(1, 2))
	assert.Equal(t, []string{"a", "b", "a", "b", "c"}, order)
	assert.Equal(t, 0, w.Count(StageOnceBefore))
	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))

	assert.Equal(t, 3, w.Call(1, 2))
	assert.Len(t, order, 5)
}

func TestOnceAfter_PanicKeepsHooksQueued(t *testing.T) {
	w, q := newSum(t)

	var got [][]int
	require.NoError(t, w.On(StageOnceAfter, func(r int, xs ...int) {
		got = append(got, append([]int{r}, xs...))
		if len(got) == 1 {
			panic("boom")
		}
	}))

	assert.Equal(t, 3, w.Call(1, 2))

	var raised any
	func() {
		defer func() { raised = recover() }()
		q.Drain()
	}()
	var panicErr *taskq.PanicError
	require.ErrorAs(t, raised.(error), &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
	assert.Equal(t, 1, w.Count(StageOnceAfter))

	assert.Equal(t, 7, w.Call(3, 4))
	q.Drain()

	assert.Equal(t, [][]int{{3, 1, 2}, {7, 3, 4}}, got)
	assert.Equal(t, 0, w.Count(StageOnceAfter))
	assert.Equal(t, funcPtr(sum), funcPtr(w.handler()))
}

func TestHookMayRegisterHooks(t *testing.T) {
	w, q := newSum(t)

	var fired int
	require.NoError(t, w.On(StageOnceBefore, func() {
		require.NoError(t, w.On(StageAfter, func() { fired++ }))
	}))

	w.Call(1, 2)
	w.Call(1, 2)
	q.Drain()

	// The first call's handler was built without an after stage.
	assert.Equal(t, 1, fired)
}

func TestOnceBefore_ConcurrentCallsFireOnce(t *testing.T) {
	w, q := newSum(t)

	var fired atomic.Int32
	require.NoError(t, w.On(StageOnceBefore, func() { fired.Add(1) }))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 3, w.Call(1, 2))
		}()
	}
	wg.Wait()
	q.Drain()

	assert.Equal(t, int32(1), fired.Load())
}

func TestAfter_WithLoop(t *testing.T) {
	loop := taskq.NewLoop(taskq.WithLogger(logging.Discard()))
	require.NoError(t, loop.Start())
	defer loop.Stop(context.Background())

	w, err := New(sum, WithScheduler(loop), WithLogger(logging.Discard()))
	require.NoError(t, err)

	var mu sync.Mutex
	var results []int
	require.NoError(t, w.On(StageAfter, func(r int, xs ...int) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))

	for i := 0; i < 3; i++ {
		w.Call(i, 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, loop.Flush(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, results)
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in      string
		want    Stage
		wantErr bool
	}{
		{"before", StageBefore, false},
		{"After", StageAfter, false},
		{"oncebefore", StageOnceBefore, false},
		{"once_after", StageOnceAfter, false},
		{"Once-Before", StageOnceBefore, false},
		{" onceafter ", StageOnceAfter, false},
		{"alter", "", true},
		{"belfore", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStage(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStagePredicates(t *testing.T) {
	assert.True(t, StageOnceBefore.IsBefore())
	assert.True(t, StageBefore.IsBefore())
	assert.False(t, StageAfter.IsBefore())
	assert.True(t, StageOnceAfter.IsOnce())
	assert.False(t, StageAfter.IsOnce())
	assert.False(t, Stage("bogus").Valid())
	assert.Equal(t, "before", StageBefore.String())
}
