package taskq

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/hookwrap/internal/logging"
)

// Loop runs deferred tasks on a single worker goroutine in FIFO order.
// Its queue is unbounded: Schedule never blocks and never drops work while
// the loop is running.
type Loop struct {
	// Configuration
	logger       *slog.Logger
	panicHandler PanicHandler

	// State
	mu      sync.Mutex // protects tasks and the lifecycle channels
	tasks   []Task
	wake    chan struct{}
	quit    chan struct{}
	done    chan struct{}
	running atomic.Bool

	// Stats
	scheduled   atomic.Uint64
	executed    atomic.Uint64
	panicked    atomic.Uint64
	dropped     atomic.Uint64
	totalTimeNs atomic.Int64
	totalWaitNs atomic.Int64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(l *slog.Logger) LoopOption {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithPanicHandler sets the handler for panicking tasks.
func WithPanicHandler(h PanicHandler) LoopOption {
	return func(lp *Loop) {
		lp.panicHandler = h
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		logger: logging.Component("taskq"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.panicHandler == nil {
		l.panicHandler = LogPanicHandler(l.logger)
	}
	return l
}

// Start starts the worker goroutine. It fails with ErrStopping while the
// worker of an earlier Stop is still draining.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return ErrAlreadyRunning
	}
	if l.done != nil {
		select {
		case <-l.done:
		default:
			return ErrStopping
		}
	}

	l.wake = make(chan struct{}, 1)
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	l.running.Store(true)

	go l.worker(l.wake, l.quit, l.done)

	l.logger.Debug("task loop started")
	return nil
}

// Stop stops accepting tasks and waits for queued tasks to finish or for
// ctx to end. If ctx ends first the worker keeps draining in the background
// and Start refuses to run until it is done.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return ErrNotRunning
	}

	l.running.Store(false)
	close(l.quit)
	done := l.done
	l.mu.Unlock()

	select {
	case <-done:
		l.logger.Debug("task loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule implements Scheduler. Work scheduled on a stopped loop is
// dropped, counted and logged.
func (l *Loop) Schedule(fn func()) {
	if err := l.Enqueue(fn); err != nil {
		l.dropped.Add(1)
		l.logger.Warn("deferred task dropped", "error", err)
	}
}

// Enqueue adds fn to the end of the queue.
func (l *Loop) Enqueue(fn func()) error {
	if fn == nil {
		return ErrNilTask
	}

	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.tasks = append(l.tasks, newTask(fn))
	wake := l.wake
	l.mu.Unlock()

	l.scheduled.Add(1)

	select {
	case wake <- struct{}{}:
	default:
	}
	return nil
}

// Flush waits until every task scheduled before the call has run.
func (l *Loop) Flush(ctx context.Context) error {
	reached := make(chan struct{})
	if err := l.Enqueue(func() { close(reached) }); err != nil {
		return err
	}

	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker runs tasks until quit is closed and the queue is empty.
func (l *Loop) worker(wake, quit, done chan struct{}) {
	defer close(done)

	for {
		if task, ok := l.pop(); ok {
			l.run(task)
			continue
		}

		select {
		case <-wake:
		case <-quit:
			for {
				task, ok := l.pop()
				if !ok {
					return
				}
				l.run(task)
			}
		}
	}
}

func (l *Loop) pop() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return Task{}, false
	}
	task := l.tasks[0]
	l.tasks[0] = Task{}
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *Loop) run(task Task) {
	out := execute(task, l.panicHandler)

	l.executed.Add(1)
	l.totalTimeNs.Add(out.duration.Nanoseconds())
	l.totalWaitNs.Add(out.wait.Nanoseconds())
	if out.panicked {
		l.panicked.Add(1)
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// IsRunning returns true if the loop is running.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Stats returns loop statistics.
func (l *Loop) Stats() LoopStats {
	executed := l.executed.Load()
	totalNs := l.totalTimeNs.Load()
	waitNs := l.totalWaitNs.Load()

	var avgNs, avgWaitNs int64
	if executed > 0 {
		avgNs = totalNs / int64(executed)
		avgWaitNs = waitNs / int64(executed)
	}

	return LoopStats{
		Scheduled:     l.scheduled.Load(),
		Executed:      executed,
		Panicked:      l.panicked.Load(),
		Dropped:       l.dropped.Load(),
		Pending:       l.Pending(),
		TotalDuration: time.Duration(totalNs),
		AvgDuration:   time.Duration(avgNs),
		AvgWait:       time.Duration(avgWaitNs),
	}
}

// LoopStats contains statistics for a Loop.
type LoopStats struct {
	// Scheduled is the total number of tasks accepted.
	Scheduled uint64

	// Executed is the number of tasks that have run.
	Executed uint64

	// Panicked is the number of tasks that panicked.
	Panicked uint64

	// Dropped is the number of tasks rejected because the loop was stopped.
	Dropped uint64

	// Pending is the number of tasks waiting to run.
	Pending int

	// TotalDuration is the cumulative time spent running tasks.
	TotalDuration time.Duration

	// AvgDuration is the average task run time.
	AvgDuration time.Duration

	// AvgWait is the average time a task waited in the queue.
	AvgWait time.Duration
}

var (
	defaultLoop     *Loop
	defaultLoopOnce sync.Once
)

// Default returns the process-wide loop, starting it on first use.
func Default() *Loop {
	defaultLoopOnce.Do(func() {
		defaultLoop = NewLoop()
		_ = defaultLoop.Start()
	})
	return defaultLoop
}
