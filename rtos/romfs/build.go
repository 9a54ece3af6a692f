package romfs

import (
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"rtshell/rtos/fattr"
)

const (
	DefaultDirPerm  = 0o755
	DefaultFilePerm = 0o644
)

// Builder collects entries and encodes them as an image.
type Builder struct {
	entries map[string]fattr.Attr
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]fattr.Attr)}
}

// AddDir adds a directory entry and any missing parents.
func (b *Builder) AddDir(name string, perm uint32) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	b.addParents(name)
	b.entries[name] = fattr.Attr{Name: name, Mode: fattr.ModeDir | perm&fattr.ModePerm}
	return nil
}

// AddFile adds a regular file and any missing parent directories.
func (b *Builder) AddFile(name string, perm uint32, content []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if uint64(len(content)) > math.MaxUint32 {
		return fmt.Errorf("romfs: %s: file too large", name)
	}
	if e, ok := b.entries[name]; ok && e.IsDir() {
		return fmt.Errorf("romfs: %s: is a directory", name)
	}
	b.addParents(name)
	b.entries[name] = fattr.Attr{
		Name:    name,
		Mode:    fattr.ModeRegular | perm&fattr.ModePerm,
		Size:    len(content),
		Content: content,
	}
	return nil
}

// Chmod replaces the permission bits of an existing entry.
func (b *Builder) Chmod(name string, perm uint32) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	e, ok := b.entries[name]
	if !ok {
		return fmt.Errorf("romfs: chmod %s: %w", name, fs.ErrNotExist)
	}
	e.Mode = e.Mode&fattr.ModeTypeMask | perm&fattr.ModePerm
	b.entries[name] = e
	return nil
}

func (b *Builder) addParents(name string) {
	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		if _, ok := b.entries[dir]; ok {
			return
		}
		b.entries[dir] = fattr.Attr{Name: dir, Mode: fattr.ModeDir | DefaultDirPerm}
	}
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return len(b.entries) }

// Bytes encodes the image. Entries are sorted by name, so equal inputs give
// identical images.
func (b *Builder) Bytes() []byte {
	names := make([]string, 0, len(b.entries))
	size := headerSize + DigestSize
	for name, e := range b.entries {
		names = append(names, name)
		size += entryFixed + len(name) + len(e.Content)
	}
	sort.Strings(names)

	out := make([]byte, 0, size)
	out = append(out, Magic...)
	out = binary.LittleEndian.AppendUint32(out, Version)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(names)))
	for _, name := range names {
		e := b.entries[name]
		out = binary.LittleEndian.AppendUint32(out, fattr.Hash(name))
		out = binary.LittleEndian.AppendUint32(out, e.Mode)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(e.Content)))
		out = binary.LittleEndian.AppendUint16(out, uint16(len(name)))
		out = append(out, name...)
		out = append(out, e.Content...)
	}
	sum := blake3.Sum256(out)
	return append(out, sum[:]...)
}

// BuildOption adjusts Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	perms       map[string]uint32
	sourcePerms bool
}

// WithPerm sets the permission bits of one path in the image.
func WithPerm(name string, perm uint32) BuildOption {
	return func(c *buildConfig) {
		c.perms[strings.Trim(name, "/")] = perm
	}
}

// WithSourcePerms copies permission bits from the source filesystem instead
// of using the defaults.
func WithSourcePerms() BuildOption {
	return func(c *buildConfig) { c.sourcePerms = true }
}

// Build packs every directory and regular file of fsys into an image.
func Build(fsys fs.FS, opts ...BuildOption) ([]byte, error) {
	cfg := buildConfig{perms: make(map[string]uint32)}
	for _, o := range opts {
		o(&cfg)
	}

	b := NewBuilder()
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if name == "." {
			return nil
		}
		perm := uint32(DefaultFilePerm)
		if d.IsDir() {
			perm = DefaultDirPerm
		}
		if cfg.sourcePerms {
			info, err := d.Info()
			if err != nil {
				return err
			}
			perm = uint32(info.Mode().Perm())
		}

		switch {
		case d.IsDir():
			return b.AddDir(name, perm)
		case d.Type().IsRegular():
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				return err
			}
			return b.AddFile(name, perm, content)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("romfs: build: %w", err)
	}
	for name, perm := range cfg.perms {
		if err := b.Chmod(name, perm); err != nil {
			return nil, fmt.Errorf("romfs: build: %w", err)
		}
	}
	return b.Bytes(), nil
}

func cleanName(name string) (string, error) {
	name = strings.Trim(name, "/")
	if name == "" || !fs.ValidPath(name) {
		return "", fmt.Errorf("romfs: invalid name %q", name)
	}
	if len(name) > math.MaxUint16 {
		return "", fmt.Errorf("romfs: name too long (%d bytes)", len(name))
	}
	return name, nil
}
