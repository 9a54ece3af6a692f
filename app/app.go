// Package app wires the runtime together: scheduler, descriptor table, mount
// registry, serial console and shell.
package app

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/dustin/go-humanize"

	"rtshell/hal"
	"rtshell/internal/buildinfo"
	"rtshell/rtos/devfs"
	"rtshell/rtos/filesystem"
	"rtshell/rtos/fio"
	"rtshell/rtos/kernel"
	"rtshell/rtos/romfs"
	"rtshell/rtos/serial"
	"rtshell/rtos/services/shell"
)

// RomFSMount is where the archive image is mounted.
const RomFSMount = "romfs"

//go:embed rootfs
var rootfs embed.FS

// Config selects the session and table parameters.
type Config struct {
	Hostname string
	User     string
	Accounts string
	History  int
	MaxFDs   int
	// RomFS is a complete romfs image. Nil selects the built-in one.
	RomFS []byte
}

// System is one running instance of the runtime.
type System struct {
	k     *kernel.Kernel
	port  *serial.Port
	tbl   *fio.Table
	fs    *filesystem.Registry
	shell *shell.Service
	log   *slog.Logger

	shellDone chan struct{}
}

// DefaultImage builds the image that ships with the binary.
func DefaultImage() ([]byte, error) {
	sub, err := fs.Sub(rootfs, "rootfs")
	if err != nil {
		return nil, err
	}
	return romfs.Build(sub, romfs.WithPerm("etc/passwd", 0o600))
}

// New builds the system on h. Nothing runs until Run.
func New(h hal.HAL, cfg Config, log *slog.Logger) (*System, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &System{
		k:         kernel.New(log.With("component", "kernel")),
		tbl:       fio.New(cfg.MaxFDs),
		fs:        filesystem.New(filesystem.DefaultMaxMounts),
		log:       log,
		shellDone: make(chan struct{}),
	}
	installPanicHandler(s.k, h)

	s.port = serial.New(h.Serial(), log.With("component", "serial"))
	if err := s.fs.Register(devfs.MountPoint, devfs.New(s.port, s.tbl)); err != nil {
		return nil, err
	}
	if err := devfs.BindStdio(s.fs); err != nil {
		return nil, err
	}

	image := cfg.RomFS
	if image == nil {
		var err error
		if image, err = DefaultImage(); err != nil {
			return nil, fmt.Errorf("app: built-in romfs: %w", err)
		}
	}
	img, err := romfs.Parse(image)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if err := s.fs.Register(RomFSMount, romfs.New(img, s.tbl)); err != nil {
		return nil, err
	}
	log.Info("Mounted romfs", "entries", img.Len(), "size", humanize.IBytes(uint64(img.TotalSize())),
		"digest", fmt.Sprintf("%x", img.Digest()))

	s.shell, err = shell.New(shell.Config{
		Hostname:    cfg.Hostname,
		User:        cfg.User,
		Accounts:    cfg.Accounts,
		HistorySize: cfg.History,
	}, s.tbl, s.fs, s.k, log.With("component", "shell"))
	if err != nil {
		return nil, err
	}

	for _, t := range []struct {
		name string
		prio kernel.Priority
		task kernel.TaskFunc
	}{
		{"serial-tx", kernel.PriorityHigh, s.port.RunTX},
		{"serial-rx", kernel.PriorityHigh, s.port.RunRX},
		{"shell", kernel.PriorityNorm, s.runShell},
	} {
		if _, err := s.k.AddTask(t.name, t.prio, t.task); err != nil {
			return nil, fmt.Errorf("app: task %s: %w", t.name, err)
		}
	}
	return s, nil
}

func (s *System) runShell(ctx *kernel.Context) {
	defer close(s.shellDone)
	_, _ = s.tbl.WriteString(fio.Stdout, buildinfo.String()+"\n")
	s.shell.Run(ctx)
}

// Run starts the scheduler and blocks until ctx is cancelled or the console
// hangs up. Every task has returned when Run does.
func (s *System) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.k.Start(ctx)
	s.log.Info("System started", "build", buildinfo.Short())

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-s.shellDone:
		s.port.Flush()
	}
	cancel()
	_ = s.port.Close()
	s.k.Wait()
	s.log.Info("System stopped")
	return err
}

// Kernel exposes the scheduler for diagnostics.
func (s *System) Kernel() *kernel.Kernel { return s.k }
