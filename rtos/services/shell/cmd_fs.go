package shell

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"rtshell/rtos/fattr"
	"rtshell/rtos/fio"
	"rtshell/rtos/kernel"
)

func registerFSCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "cat", Usage: "cat <path>...", Desc: "Print files.", Run: cmdCat},
		{Name: "cd", Usage: "cd [dir]", Desc: "Change current directory.", Run: cmdCd},
		{Name: "ls", Usage: "ls [-lah] [path]", Desc: "List directory entries.", Run: cmdLs},
		{Name: "pwd", Usage: "pwd", Desc: "Print current directory.", Run: cmdPwd},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdPwd(_ *kernel.Context, s *Service, _ []string) error {
	return s.printString(s.cwd + "\n")
}

func cmdCd(_ *kernel.Context, s *Service, args []string) error {
	target := "/"
	if len(args) == 1 {
		target = args[0]
	} else if len(args) > 1 {
		return usageError("cd [dir]")
	}
	target = s.absPath(target)

	a, err := s.fs.Stat(target)
	if err != nil {
		return failf(err, "cd: %s: %s", target, reason(err))
	}
	if !a.IsDir() {
		return failf(ErrNotDir, "cd: %s: Not a directory", target)
	}
	s.cwd = target
	return nil
}

func cmdCat(_ *kernel.Context, s *Service, args []string) error {
	if len(args) == 0 {
		return usageError("cat <path>...")
	}
	var firstErr error
	for _, a := range args {
		path := s.absPath(a)
		if err := s.cat(path); err != nil {
			s.errorString("cat: " + path + ": " + reason(err) + "\n")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		return failf(firstErr, "")
	}
	return nil
}

func (s *Service) cat(path string) error {
	fd, err := s.openRead(path)
	if err != nil {
		return err
	}
	defer func() { _ = s.tbl.Close(fd) }()

	buf := make([]byte, 64)
	for {
		n, err := s.tbl.Read(fd, buf)
		if n > 0 {
			if _, werr := s.tbl.Write(fio.Stdout, buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type lsOpts struct {
	long  bool
	all   bool
	human bool
}

func cmdLs(_ *kernel.Context, s *Service, args []string) error {
	var opts lsOpts
	var target string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			for _, f := range a[1:] {
				switch f {
				case 'l':
					opts.long = true
				case 'a':
					opts.all = true
				case 'h':
					opts.human = true
				default:
					return usageError("ls [-lah] [path]")
				}
			}
			continue
		}
		if target != "" {
			return usageError("ls [-lah] [path]")
		}
		target = a
	}
	path := s.absPath(target)

	a, err := s.fs.Stat(path)
	if err == nil && !a.IsDir() {
		return s.printString(formatEntry(a, opts))
	}

	it, err := s.fs.OpenDir(path)
	if err != nil {
		return failf(err, "ls: %s: %s", path, reason(err))
	}
	var b strings.Builder
	var e fattr.Attr
	for it.Next(&e) {
		if e.IsHidden() && !opts.all {
			continue
		}
		b.WriteString(formatEntry(e, opts))
	}
	return s.printString(b.String())
}

func formatEntry(a fattr.Attr, opts lsOpts) string {
	if !opts.long {
		return a.Name + "\n"
	}
	size := strconv.Itoa(a.Size)
	if opts.human {
		size = humanize.IBytes(uint64(a.Size))
	}
	return fmt.Sprintf("%s %8s %s\n", a.ModeString(), size, a.Name)
}
