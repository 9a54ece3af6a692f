// Package filesystem routes paths to mount providers registered under a
// mount point name.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"rtshell/rtos/fattr"
	"rtshell/rtos/fio"
)

// DefaultMaxMounts is the registry capacity used by the runtime.
const DefaultMaxMounts = 16

var (
	ErrNotFound      = fmt.Errorf("filesystem: no such mount point: %w", fs.ErrNotExist)
	ErrMalformedPath = errors.New("filesystem: malformed path")
	ErrRegistryFull  = errors.New("filesystem: mount registry full")
	ErrNoListing     = errors.New("filesystem: listing not supported")
)

// Provider opens files below one mount point. rel is the path with the mount
// point and the following slash removed.
type Provider interface {
	Open(rel string, flags int, mode uint32) (int, error)
}

// Cursor is opaque provider iteration state.
type Cursor any

// Mounter is implemented by providers that can list directories.
//
// Mount fills attr with one entry of directory rel. A nil cur starts the
// listing. ok reports whether attr was filled; a nil next ends the listing.
type Mounter interface {
	Mount(rel string, cur Cursor, attr *fattr.Attr) (next Cursor, ok bool)
}

type mount struct {
	name     string
	hash     uint32
	provider Provider
}

// Registry is a fixed-capacity, append-only table of mount points.
type Registry struct {
	mu     sync.RWMutex
	mounts []mount
	max    int
}

// New creates a registry with room for capacity mount points.
func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultMaxMounts
	}
	return &Registry{max: capacity, mounts: make([]mount, 0, capacity)}
}

// Register adds provider under name. Names are not checked for duplicates;
// the newest registration wins lookups.
func (r *Registry) Register(name string, p Provider) error {
	name = strings.Trim(name, "/")
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("register %q: %w", name, ErrMalformedPath)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.mounts) >= r.max {
		return fmt.Errorf("register %q: %w", name, ErrRegistryFull)
	}
	r.mounts = append(r.mounts, mount{name: name, hash: fattr.Hash(name), provider: p})
	return nil
}

// Names returns the registered mount point names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.mounts))
	for _, m := range r.mounts {
		out = append(out, m.name)
	}
	return out
}

func (r *Registry) lookup(name string) (Provider, bool) {
	h := fattr.Hash(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.mounts) - 1; i >= 0; i-- {
		m := r.mounts[i]
		if m.hash == h && m.name == name {
			return m.provider, true
		}
	}
	return nil, false
}

// Resolve splits path into its mount point and the remainder. hasSlash
// reports whether a separator followed the mount point.
func Resolve(path string) (point, rest string, hasSlash bool) {
	path = strings.TrimLeft(path, "/")
	i := strings.IndexByte(path, '/')
	if i < 0 {
		return path, "", false
	}
	return path[:i], path[i+1:], true
}

// Open resolves path to a provider and opens rest below it.
func (r *Registry) Open(path string, flags int, mode uint32) (int, error) {
	point, rest, ok := Resolve(path)
	if !ok {
		// No file lives directly under the root, so a path without a
		// mount point reads as missing.
		return -1, fmt.Errorf("open %s: %w: %w", path, ErrMalformedPath, fs.ErrNotExist)
	}
	p, found := r.lookup(point)
	if !found {
		return -1, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	return p.Open(rest, flags, mode)
}

// ListDir starts a listing of path. Listing "/" enumerates the mount points.
func (r *Registry) ListDir(path string) (*DirIter, error) {
	point, rest, _ := Resolve(path)
	rest = strings.Trim(rest, "/")
	if point == "" {
		return &DirIter{m: rootLister{names: r.Names()}}, nil
	}
	p, found := r.lookup(point)
	if !found {
		return nil, fmt.Errorf("list %s: %w", path, ErrNotFound)
	}
	m, ok := p.(Mounter)
	if !ok {
		return nil, fmt.Errorf("list %s: %w", path, ErrNoListing)
	}
	return &DirIter{m: m, rel: rest}, nil
}

// OpenDir is ListDir for the descriptor table.
func (r *Registry) OpenDir(path string) (fio.DirIter, error) {
	it, err := r.ListDir(path)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Stat finds the entry for path by scanning its parent directory.
func (r *Registry) Stat(path string) (fattr.Attr, error) {
	clean := strings.Trim(path, "/")
	if clean == "" {
		return fattr.Attr{Name: "/", Mode: fattr.ModeDir | 0o755}, nil
	}
	dir, base := "/", clean
	if i := strings.LastIndexByte(clean, '/'); i >= 0 {
		dir, base = "/"+clean[:i], clean[i+1:]
	}
	it, err := r.ListDir(dir)
	if err != nil {
		return fattr.Attr{}, err
	}
	var a fattr.Attr
	for it.Next(&a) {
		if a.Name == base {
			return a, nil
		}
	}
	return fattr.Attr{}, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
}

// DirIter walks one directory lazily. It owns its cursor, so concurrent
// listings do not interfere.
type DirIter struct {
	m    Mounter
	rel  string
	cur  Cursor
	done bool
}

// Next fills attr with the next entry and reports whether it did.
func (it *DirIter) Next(attr *fattr.Attr) bool {
	for !it.done {
		next, ok := it.m.Mount(it.rel, it.cur, attr)
		it.cur = next
		if next == nil {
			it.done = true
		}
		if ok {
			return true
		}
	}
	return false
}

// More reports whether the provider has entries left.
func (it *DirIter) More() bool { return !it.done }

type rootLister struct {
	names []string
}

func (l rootLister) Mount(_ string, cur Cursor, attr *fattr.Attr) (Cursor, bool) {
	i, _ := cur.(int)
	if i >= len(l.names) {
		return nil, false
	}
	*attr = fattr.Attr{
		Hash: fattr.Hash(l.names[i]),
		Name: l.names[i],
		Mode: fattr.ModeDir | 0o555,
	}
	if i+1 >= len(l.names) {
		return nil, true
	}
	return i + 1, true
}
