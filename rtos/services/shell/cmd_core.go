package shell

import (
	"errors"
	"strings"

	"rtshell/rtos/kernel"
)

func registerCoreCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "echo", Usage: "echo [-n] [args...]", Desc: "Show words you input.", Run: cmdEcho},
		{Name: "export", Usage: "export [NAME=VALUE...]", Desc: "Export environment variables.", Run: cmdExport},
		{Name: "help", Usage: "help", Desc: "List all commands you can use.", Run: cmdHelp},
		{Name: "history", Usage: "history", Desc: "Show latest commands entered.", Run: cmdHistory},
		{Name: "man", Usage: "man <command>", Desc: "Manual pager.", Run: cmdMan},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdEcho(_ *kernel.Context, s *Service, args []string) error {
	newline := true
	for len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if newline {
		out += "\n"
	}
	return s.printString(out)
}

func cmdExport(_ *kernel.Context, s *Service, args []string) error {
	if len(args) == 0 {
		var b strings.Builder
		s.env.Each(func(name, value string) {
			b.WriteString(name + "=" + value + "\n")
		})
		return s.printString(b.String())
	}
	var firstErr error
	for _, a := range args {
		name, value, _ := strings.Cut(a, "=")
		err := s.env.Set(name, value)
		switch {
		case err == nil:
			continue
		case errors.Is(err, ErrReadOnly):
			s.errorString("export: " + name + ": read-only variable\n")
		case errors.Is(err, ErrEnvFull):
			s.errorString("export: " + name + ": environment full\n")
		case errors.Is(err, ErrEnvBadName):
			s.errorString("export: " + a + ": invalid name\n")
		default:
			s.errorString("export: " + name + ": name or value too long\n")
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return failf(firstErr, "")
	}
	return nil
}

func cmdHelp(_ *kernel.Context, s *Service, _ []string) error {
	var b strings.Builder
	b.WriteString("This system has commands as follow\n")
	for _, cmd := range s.reg.list() {
		b.WriteString(cmd.Name + ": " + cmd.Desc + "\n")
	}
	return s.printString(b.String())
}

func cmdHistory(_ *kernel.Context, s *Service, _ []string) error {
	for _, l := range s.hist.Entries() {
		if err := s.printString(l + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func cmdMan(_ *kernel.Context, s *Service, args []string) error {
	if len(args) != 1 {
		return usageError("man <command>")
	}
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		return failf(ErrUsage, "man: No manual entry for %s", args[0])
	}
	return s.printf("NAME: %s\nDESCRIPTION: %s\nUSAGE: %s\n", cmd.Name, cmd.Desc, cmd.Usage)
}
