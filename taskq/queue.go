package taskq

import (
	"sync"
	"sync/atomic"
)

// Queue holds deferred tasks until Drain is called.
type Queue struct {
	mu    sync.Mutex
	tasks []Task

	scheduled atomic.Uint64
	executed  atomic.Uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule implements Scheduler. A nil fn is ignored.
func (q *Queue) Schedule(fn func()) {
	if fn == nil {
		return
	}

	q.mu.Lock()
	q.tasks = append(q.tasks, newTask(fn))
	q.mu.Unlock()

	q.scheduled.Add(1)
}

// RunNext runs the oldest pending task. It reports false if none was pending.
// A panicking task is re-raised as a *PanicError.
func (q *Queue) RunNext() bool {
	task, ok := q.pop()
	if !ok {
		return false
	}
	q.executed.Add(1)
	if out := execute(task, nil); out.panicked {
		panic(&PanicError{TaskID: task.ID, Value: out.panicValue, Stack: out.panicStack})
	}
	return true
}

// Drain runs pending tasks in order until the queue is empty, including
// tasks scheduled by the tasks it runs. It returns the number of tasks run.
// A panicking task unwinds through Drain as a *PanicError; tasks behind it
// stay queued.
func (q *Queue) Drain() int {
	n := 0
	for q.RunNext() {
		n++
	}
	return n
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Stats returns queue statistics.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Scheduled: q.scheduled.Load(),
		Executed:  q.executed.Load(),
		Pending:   q.Len(),
	}
}

func (q *Queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return Task{}, false
	}
	task := q.tasks[0]
	q.tasks[0] = Task{}
	q.tasks = q.tasks[1:]
	return task, true
}

// QueueStats contains statistics for a Queue.
type QueueStats struct {
	// Scheduled is the total number of tasks accepted.
	Scheduled uint64

	// Executed is the number of tasks started by RunNext or Drain.
	Executed uint64

	// Pending is the number of tasks waiting to run.
	Pending int
}
