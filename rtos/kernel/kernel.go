package kernel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const maxTasks = 32

// TaskID identifies a task. IDs are assigned in registration order.
type TaskID uint8

// Priority is advisory: tasks start in descending priority order and ps
// reports it, but the Go runtime does the actual preemption.
type Priority uint8

const (
	PriorityIdle Priority = 0
	PriorityLow  Priority = 1
	PriorityNorm Priority = 2
	PriorityHigh Priority = 3
)

// TaskState is the scheduler's view of a task.
type TaskState uint8

const (
	TaskReady TaskState = iota
	TaskRunning
	TaskBlocked
	TaskExited
	TaskPanicked
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskBlocked:
		return "blocked"
	case TaskExited:
		return "exited"
	case TaskPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// Letter returns the single-letter status used by ps.
func (s TaskState) Letter() byte {
	switch s {
	case TaskReady:
		return 'R'
	case TaskRunning:
		return 'S'
	case TaskBlocked:
		return 'B'
	case TaskExited:
		return 'X'
	case TaskPanicked:
		return 'P'
	default:
		return '?'
	}
}

// Task is a unit of execution. Run is called once on its own goroutine.
type Task interface {
	Run(ctx *Context)
}

// TaskFunc adapts a function to Task.
type TaskFunc func(ctx *Context)

func (f TaskFunc) Run(ctx *Context) { f(ctx) }

// TaskInfo is a snapshot of one task for diagnostics.
type TaskInfo struct {
	ID       TaskID
	Name     string
	Priority Priority
	State    TaskState
}

var ErrTooManyTasks = errors.New("kernel: task table full")

type taskState struct {
	name  string
	prio  Priority
	task  Task
	state TaskState
}

// Kernel owns the task table and the tick counter.
type Kernel struct {
	mu      sync.Mutex
	tasks   []*taskState
	started bool
	runCtx  context.Context

	wg    sync.WaitGroup
	ticks atomic.Uint64

	log *slog.Logger

	panicHandler func(PanicInfo)
}

// New creates a kernel. A nil logger discards output.
func New(log *slog.Logger) *Kernel {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Kernel{log: log}
}

// AddTask registers a task. Tasks added after Start begin immediately.
func (k *Kernel) AddTask(name string, prio Priority, t Task) (TaskID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.tasks) >= maxTasks {
		return 0, ErrTooManyTasks
	}
	id := TaskID(len(k.tasks))
	st := &taskState{name: name, prio: prio, task: t, state: TaskReady}
	k.tasks = append(k.tasks, st)

	if k.started {
		k.spawnLocked(id, st)
	}
	return id, nil
}

// Start launches the tick source and every registered task.
func (k *Kernel) Start(ctx context.Context) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return
	}
	k.started = true
	k.runCtx = ctx

	go k.tickLoop(ctx)

	order := make([]TaskID, len(k.tasks))
	for i := range order {
		order[i] = TaskID(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return k.tasks[order[i]].prio > k.tasks[order[j]].prio
	})
	for _, id := range order {
		k.spawnLocked(id, k.tasks[id])
	}
	k.log.Debug("Scheduler started", "tasks", len(k.tasks))
}

// Wait blocks until every started task has returned.
func (k *Kernel) Wait() {
	k.wg.Wait()
}

// Tasks returns a snapshot of the task table ordered by ID.
func (k *Kernel) Tasks() []TaskInfo {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]TaskInfo, 0, len(k.tasks))
	for i, st := range k.tasks {
		out = append(out, TaskInfo{ID: TaskID(i), Name: st.name, Priority: st.prio, State: st.state})
	}
	return out
}

// NowTick returns the number of 1ms ticks since Start.
func (k *Kernel) NowTick() uint64 {
	return k.ticks.Load()
}

// SetPanicHandler installs a handler invoked for every task panic. It must
// not panic.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.mu.Lock()
	k.panicHandler = fn
	k.mu.Unlock()
}

func (k *Kernel) spawnLocked(id TaskID, st *taskState) {
	ctx := &Context{k: k, taskID: id, name: st.name, ctx: k.runCtx}
	st.state = TaskRunning
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		defer k.recoverTask(ctx)
		st.task.Run(ctx)
		k.setState(id, TaskExited)
	}()
}

func (k *Kernel) setState(id TaskID, s TaskState) {
	k.mu.Lock()
	if int(id) < len(k.tasks) {
		k.tasks[id].state = s
	}
	k.mu.Unlock()
}

func (k *Kernel) tickLoop(ctx context.Context) {
	t := time.NewTicker(1 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			k.ticks.Add(1)
		}
	}
}
