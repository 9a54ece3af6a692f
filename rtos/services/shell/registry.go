package shell

import (
	"fmt"
	"sort"
	"strings"

	"rtshell/rtos/kernel"
)

type cmdFunc func(ctx *kernel.Context, s *Service, args []string) error

type command struct {
	Name  string
	Usage string
	Desc  string
	Run   cmdFunc
}

type registry struct {
	cmds  map[string]command
	names []string
}

func newRegistry() *registry {
	return &registry{cmds: make(map[string]command)}
}

func (r *registry) register(cmd command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("shell registry: empty command name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("shell registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.cmds[cmd.Name]; ok {
		return fmt.Errorf("shell registry: duplicate command %q", cmd.Name)
	}
	r.cmds[cmd.Name] = cmd
	r.names = append(r.names, cmd.Name)
	sort.Strings(r.names)
	return nil
}

// resolve matches name exactly.
func (r *registry) resolve(name string) (command, bool) {
	cmd, ok := r.cmds[name]
	return cmd, ok
}

func (r *registry) list() []command {
	out := make([]command, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.cmds[n])
	}
	return out
}

func newCommandTable() (*registry, error) {
	r := newRegistry()
	for _, fn := range []func(*registry) error{
		registerCoreCommands,
		registerFSCommands,
		registerSysCommands,
		registerUserCommands,
	} {
		if err := fn(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
