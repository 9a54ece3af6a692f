package shell

import (
	"rtshell/rtos/kernel"
)

func registerUserCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "su", Usage: "su [user]", Desc: "Switch user.", Run: cmdSu},
		{Name: "whoami", Usage: "whoami", Desc: "Print current user.", Run: cmdWhoami},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdSu(_ *kernel.Context, s *Service, args []string) error {
	if len(args) > 1 {
		return usageError("su [user]")
	}
	target := ""
	if len(args) == 1 {
		target = args[0]
	}
	return s.switchUser(target)
}

func cmdWhoami(_ *kernel.Context, s *Service, args []string) error {
	if len(args) != 0 {
		return usageError("whoami")
	}
	return s.printString(s.User() + "\n")
}
