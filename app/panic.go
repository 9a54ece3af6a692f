package app

import (
	"fmt"
	"strings"

	"rtshell/hal"
	"rtshell/rtos/kernel"
)

// installPanicHandler reports task panics on the HAL's diagnostic sink. The
// console cannot be used: the panicking task may be the one that owns it.
func installPanicHandler(k *kernel.Kernel, h hal.HAL) {
	l := h.Logger()
	if l == nil {
		return
	}
	k.SetPanicHandler(func(info kernel.PanicInfo) {
		l.WriteLineString(fmt.Sprintf("rtshell panic: task=%d (%s) panic=%v", info.TaskID, info.Name, info.Value))
		if len(info.Stack) == 0 {
			l.WriteLineString("stack: unavailable")
			return
		}
		for _, line := range strings.Split(string(info.Stack), "\n") {
			if line == "" {
				continue
			}
			l.WriteLineString(line)
		}
	})
}
