// Package shell is the interactive command interpreter on the console
// descriptors.
package shell

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"rtshell/rtos/fattr"
	"rtshell/rtos/fio"
	"rtshell/rtos/internal/accounts"
	"rtshell/rtos/kernel"
)

const (
	DefaultHistorySize = 8
	DefaultLineWidth   = 128
	DefaultHostname    = "rtshell"
	DefaultUser        = "guest"
	DefaultAccounts    = accounts.DefaultPath
	rootUser           = "root"
)

var (
	ErrAuthDenied = errors.New("shell: authentication denied")
	ErrPermission = fmt.Errorf("shell: %w", fs.ErrPermission)
	ErrIsDir      = fmt.Errorf("shell: is a directory: %w", fs.ErrInvalid)
	ErrNotDir     = errors.New("shell: not a directory")
	ErrUsage      = errors.New("shell: usage")
)

// Filesystem is the part of the mount registry the shell uses.
type Filesystem interface {
	Open(path string, flags int, mode uint32) (int, error)
	OpenDir(path string) (fio.DirIter, error)
	Stat(path string) (fattr.Attr, error)
}

// TaskLister reports the scheduler's tasks for ps.
type TaskLister interface {
	Tasks() []kernel.TaskInfo
}

// Config holds the session parameters.
type Config struct {
	Hostname    string
	User        string
	Accounts    string
	HistorySize int
	LineWidth   int
	EnvSize     int
}

func (c *Config) setDefaults() {
	if c.Hostname == "" {
		c.Hostname = DefaultHostname
	}
	if c.User == "" {
		c.User = DefaultUser
	}
	if c.Accounts == "" {
		c.Accounts = DefaultAccounts
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.LineWidth <= 1 {
		c.LineWidth = DefaultLineWidth
	}
	if c.EnvSize <= 0 {
		c.EnvSize = DefaultEnvSize
	}
}

// Service is one shell session.
type Service struct {
	cfg   Config
	tbl   *fio.Table
	fs    Filesystem
	tasks TaskLister
	log   *slog.Logger

	reg  *registry
	hist *History
	env  *Env
	cwd  string

	rootHolds int
	lastCR    bool
}

// New creates a session reading fd 0 and writing fds 1 and 2 of tbl. tasks
// may be nil; ps then prints only its header. A nil logger discards output.
func New(cfg Config, tbl *fio.Table, fsys Filesystem, tasks TaskLister, log *slog.Logger) (*Service, error) {
	cfg.setDefaults()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg, err := newCommandTable()
	if err != nil {
		return nil, err
	}
	s := &Service{
		cfg:   cfg,
		tbl:   tbl,
		fs:    fsys,
		tasks: tasks,
		log:   log,
		reg:   reg,
		hist:  NewHistory(cfg.HistorySize, cfg.LineWidth),
		env:   NewEnv(cfg.EnvSize),
		cwd:   "/",
	}
	if err := s.env.set(userVar, cfg.User); err != nil {
		return nil, err
	}
	return s, nil
}

// User returns the current identity.
func (s *Service) User() string {
	u, _ := s.env.Get(userVar)
	return u
}

// Cwd returns the working directory.
func (s *Service) Cwd() string { return s.cwd }

// Env exposes the session environment.
func (s *Service) Env() *Env { return s.env }

// Run reads and executes command lines until stdin ends or the kernel shuts
// down.
func (s *Service) Run(ctx *kernel.Context) {
	s.log.Info("Shell started", "user", s.User(), "host", s.cfg.Hostname)
	for {
		s.prompt()
		line, err := s.readLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				s.log.Info("Shell stopped", "reason", err)
				return
			}
			s.log.Warn("Console read failed", "err", err)
			ctx.BlockOnTick()
			continue
		}
		if line == "" {
			continue
		}
		s.Exec(ctx, line)
	}
}

// Exec runs one command line: history substitution, tokenizing, variable
// expansion and dispatch.
func (s *Service) Exec(ctx *kernel.Context, line string) {
	line = s.hist.Record(s.hist.Substitute(line))
	defer s.hist.Advance()

	args := tokenize(line)
	if len(args) == 0 {
		return
	}
	for i := range args {
		args[i] = expand(args[i], s.env)
	}

	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		s.errorString(args[0] + ": command not found\n")
		return
	}
	if err := cmd.Run(ctx, s, args[1:]); err != nil {
		s.log.Debug("Command failed", "cmd", cmd.Name, "errno", fio.Errno(err), "err", err)
		s.report(cmd.Name, err)
	}
}

func (s *Service) prompt() {
	_ = s.printString(s.User() + "@" + s.cfg.Hostname + ":" + s.cwd + "# ")
}

func (s *Service) isRoot() bool {
	return s.rootHolds > 0 || s.User() == rootUser
}

// openRead opens path for reading after checking its permission bits against
// the current identity. Entries without the other-read bit need root.
func (s *Service) openRead(path string) (int, error) {
	a, err := s.fs.Stat(path)
	if err == nil {
		if a.IsDir() {
			return -1, ErrIsDir
		}
		if a.Mode&fattr.PermOtherRead == 0 && !s.isRoot() {
			return -1, ErrPermission
		}
	}
	return s.fs.Open(path, fio.O_RDONLY, 0)
}
