// Package devfs provides the dev mount: stdin, stdout and stderr bound to a
// byte transport.
package devfs

import (
	"errors"
	"fmt"
	"io/fs"

	"rtshell/rtos/fattr"
	"rtshell/rtos/fio"
)

// MountPoint is the name devfs is registered under.
const MountPoint = "dev"

var ErrAccess = errors.New("devfs: access mode not permitted")

// Transport moves single bytes to and from the console.
type Transport interface {
	SendByte(b byte) error
	RecvByte() (byte, error)
}

var (
	hashStdin  = fattr.Hash("stdin")
	hashStdout = fattr.Hash("stdout")
	hashStderr = fattr.Hash("stderr")
)

// FS opens console streams into a descriptor table. It does not support
// listing.
type FS struct {
	t   Transport
	tbl *fio.Table
}

// New creates a devfs over t whose descriptors are allocated in tbl.
func New(t Transport, tbl *fio.Table) *FS {
	return &FS{t: t, tbl: tbl}
}

// Open implements filesystem.Provider.
func (f *FS) Open(rel string, flags int, _ uint32) (int, error) {
	acc := flags & fio.O_ACCMODE
	switch h := fattr.Hash(rel); {
	case h == hashStdin && rel == "stdin":
		if acc != fio.O_RDONLY {
			return -1, fmt.Errorf("open /dev/%s: %w", rel, ErrAccess)
		}
		return f.tbl.Open(fio.Descriptor{Reader: reader{f.t}, State: rel})
	case h == hashStdout && rel == "stdout", h == hashStderr && rel == "stderr":
		if acc == fio.O_RDONLY {
			return -1, fmt.Errorf("open /dev/%s: %w", rel, ErrAccess)
		}
		return f.tbl.Open(fio.Descriptor{Writer: writer{f.t}, State: rel})
	}
	return -1, fmt.Errorf("open /dev/%s: %w", rel, fs.ErrNotExist)
}

// Opener is the part of the mount registry BindStdio needs.
type Opener interface {
	Open(path string, flags int, mode uint32) (int, error)
}

// BindStdio opens the three console streams on a fresh table so they land on
// descriptors 0, 1 and 2.
func BindStdio(o Opener) error {
	streams := []struct {
		path  string
		flags int
		want  int
	}{
		{"/dev/stdin", fio.O_RDONLY, fio.Stdin},
		{"/dev/stdout", fio.O_WRONLY, fio.Stdout},
		{"/dev/stderr", fio.O_WRONLY, fio.Stderr},
	}
	for _, s := range streams {
		fd, err := o.Open(s.path, s.flags, 0)
		if err != nil {
			return fmt.Errorf("bind %s: %w", s.path, err)
		}
		if fd != s.want {
			return fmt.Errorf("bind %s: got fd %d, want %d", s.path, fd, s.want)
		}
	}
	return nil
}

type reader struct {
	t Transport
}

// Read blocks for one byte.
func (r reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := r.t.RecvByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	return 1, nil
}

type writer struct {
	t Transport
}

// Write sends p, expanding each newline to CR LF.
func (w writer) Write(p []byte) (int, error) {
	for i, b := range p {
		if b == '\n' {
			if err := w.t.SendByte('\r'); err != nil {
				return i, err
			}
		}
		if err := w.t.SendByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
