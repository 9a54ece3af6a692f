package kernel

import (
	"context"
	"log/slog"
	"time"
)

// Context provides task-local access to kernel operations.
type Context struct {
	k      *Kernel
	taskID TaskID
	name   string
	ctx    context.Context
}

// TaskID returns the current task ID.
func (c *Context) TaskID() TaskID { return c.taskID }

// Name returns the name the task was registered with.
func (c *Context) Name() string { return c.name }

// Done is closed when the kernel is shutting down.
func (c *Context) Done() <-chan struct{} {
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Done()
}

// Err reports why Done was closed.
func (c *Context) Err() error {
	if c.ctx == nil {
		return nil
	}
	return c.ctx.Err()
}

// NowTick returns the current tick value.
func (c *Context) NowTick() uint64 {
	if c.k == nil {
		return 0
	}
	return c.k.NowTick()
}

// Logger returns the kernel logger annotated with the task name.
func (c *Context) Logger() *slog.Logger {
	if c.k == nil {
		return slog.Default()
	}
	return c.k.log.With("task", c.name)
}

// Block runs fn with the task marked blocked, for the duration of a wait on
// a device or semaphore.
func (c *Context) Block(fn func()) {
	if c.k == nil {
		fn()
		return
	}
	c.k.setState(c.taskID, TaskBlocked)
	defer c.k.setState(c.taskID, TaskRunning)
	fn()
}

// BlockOnTick parks the task until the next tick or shutdown.
func (c *Context) BlockOnTick() {
	c.Block(func() {
		t := time.NewTimer(time.Millisecond)
		defer t.Stop()
		select {
		case <-t.C:
		case <-c.Done():
		}
	})
}
