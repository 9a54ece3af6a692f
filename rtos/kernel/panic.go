package kernel

import "fmt"

// PanicInfo contains details about a recovered task panic.
type PanicInfo struct {
	TaskID TaskID
	Name   string
	Value  any
	Stack  []byte
}

func (k *Kernel) recoverTask(ctx *Context) {
	v := recover()
	if v == nil {
		return
	}
	info := PanicInfo{TaskID: ctx.taskID, Name: ctx.name, Value: v, Stack: captureStack()}
	k.setState(ctx.taskID, TaskPanicked)
	k.log.Error("Task panicked", "task", ctx.name, "id", ctx.taskID, "value", fmt.Sprint(v))

	k.mu.Lock()
	fn := k.panicHandler
	k.mu.Unlock()
	if fn != nil {
		fn(info)
	}
}
