package shell

import (
	"fmt"
	"strings"

	"rtshell/internal/buildinfo"
	"rtshell/rtos/kernel"
)

func registerSysCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "ps", Usage: "ps", Desc: "List all the processes.", Run: cmdPs},
		{Name: "uptime", Usage: "uptime", Desc: "Show uptime in ticks.", Run: cmdUptime},
		{Name: "version", Usage: "version", Desc: "Show build version.", Run: cmdVersion},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdPs(_ *kernel.Context, s *Service, _ []string) error {
	var b strings.Builder
	b.WriteString("PID STATUS PRIORITY NAME\n")
	if s.tasks != nil {
		for _, t := range s.tasks.Tasks() {
			fmt.Fprintf(&b, "%-3d %-6c %-8d %s\n", t.ID, t.State.Letter(), t.Priority, t.Name)
		}
	}
	return s.printString(b.String())
}

func cmdUptime(ctx *kernel.Context, s *Service, _ []string) error {
	return s.printf("up %d ticks\n", ctx.NowTick())
}

func cmdVersion(_ *kernel.Context, s *Service, _ []string) error {
	return s.printString(buildinfo.String() + "\n")
}
