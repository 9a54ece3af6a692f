// Package fio implements the descriptor table: small integer handles bound to
// optional read, write, seek and close capabilities.
package fio

import (
	"errors"
	"io"
	"sync"

	"rtshell/rtos/fattr"
)

// DefaultMaxFDs is the descriptor table capacity used by the runtime.
const DefaultMaxFDs = 32

// Open flags.
const (
	O_RDONLY  = 0
	O_WRONLY  = 1
	O_RDWR    = 2
	O_ACCMODE = 3
)

// Standard descriptors bound by devfs at boot.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

var (
	ErrAlloc       = errors.New("fio: descriptor table full")
	ErrNotOpen     = errors.New("fio: descriptor not open")
	ErrUnsupported = errors.New("fio: operation not supported")
	ErrEmpty       = errors.New("fio: descriptor has no operations")
)

// Descriptor is the capability set bound to one slot. Any field may be nil.
type Descriptor struct {
	Reader io.Reader
	Writer io.Writer
	Seeker io.Seeker
	Closer io.Closer

	// State is opaque per-descriptor data owned by the provider.
	State any
}

func (d *Descriptor) empty() bool {
	return d.Reader == nil && d.Writer == nil && d.Seeker == nil && d.Closer == nil && d.State == nil
}

// Lister produces directory iterators. It is satisfied by the mount registry.
type Lister interface {
	OpenDir(path string) (DirIter, error)
}

// DirIter yields attribute records one at a time.
type DirIter interface {
	Next(attr *fattr.Attr) bool
}

// Table is a fixed-capacity descriptor table. The slot index is the fd.
type Table struct {
	mu  sync.Mutex
	fds []Descriptor
}

// New creates a table with room for capacity descriptors.
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultMaxFDs
	}
	return &Table{fds: make([]Descriptor, capacity)}
}

// Cap returns the table capacity.
func (t *Table) Cap() int { return len(t.fds) }

// Open binds d to the lowest free slot and returns its fd.
func (t *Table) Open(d Descriptor) (int, error) {
	if d.empty() {
		return -1, ErrEmpty
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for fd := range t.fds {
		if t.fds[fd].empty() {
			t.fds[fd] = d
			return fd, nil
		}
	}
	return -1, ErrAlloc
}

// IsOpen reports whether fd refers to an open descriptor.
func (t *Table) IsOpen(fd int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isOpenLocked(fd)
}

func (t *Table) isOpenLocked(fd int) bool {
	return fd >= 0 && fd < len(t.fds) && !t.fds[fd].empty()
}

// get copies the slot so that I/O can proceed without holding the lock.
func (t *Table) get(fd int) (Descriptor, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isOpenLocked(fd) {
		return Descriptor{}, ErrNotOpen
	}
	return t.fds[fd], nil
}

// Read reads from fd into buf.
func (t *Table) Read(fd int, buf []byte) (int, error) {
	d, err := t.get(fd)
	if err != nil {
		return 0, err
	}
	if d.Reader == nil {
		return 0, ErrUnsupported
	}
	return d.Reader.Read(buf)
}

// Write writes buf to fd.
func (t *Table) Write(fd int, buf []byte) (int, error) {
	d, err := t.get(fd)
	if err != nil {
		return 0, err
	}
	if d.Writer == nil {
		return 0, ErrUnsupported
	}
	return d.Writer.Write(buf)
}

// WriteString writes s to fd.
func (t *Table) WriteString(fd int, s string) (int, error) {
	return t.Write(fd, []byte(s))
}

// Seek repositions fd. whence is one of io.SeekStart, io.SeekCurrent, io.SeekEnd.
func (t *Table) Seek(fd int, offset int64, whence int) (int64, error) {
	d, err := t.get(fd)
	if err != nil {
		return 0, err
	}
	if d.Seeker == nil {
		return 0, ErrUnsupported
	}
	return d.Seeker.Seek(offset, whence)
}

// Close frees the slot and then calls the descriptor's closer, if any. The
// slot is released before the closer runs, so a concurrent Close of the same
// fd gets ErrNotOpen and the slot may already be reused when the closer
// returns.
func (t *Table) Close(fd int) error {
	t.mu.Lock()
	if !t.isOpenLocked(fd) {
		t.mu.Unlock()
		return ErrNotOpen
	}
	d := t.fds[fd]
	t.fds[fd] = Descriptor{}
	t.mu.Unlock()

	if d.Closer != nil {
		return d.Closer.Close()
	}
	return nil
}

// List fills out with up to len(out) entries of dir and returns how many were
// filled. The table lock is held for the whole listing.
func (t *Table) List(src Lister, dir string, out []fattr.Attr) (int, error) {
	if len(out) == 0 {
		return 0, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	it, err := src.OpenDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for n < len(out) && it.Next(&out[n]) {
		n++
	}
	return n, nil
}
