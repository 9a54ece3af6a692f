package romfs

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"

	"rtshell/rtos/fattr"
	"rtshell/rtos/filesystem"
	"rtshell/rtos/fio"
)

// FS serves an image as a mount provider. Opened files are allocated in the
// given descriptor table.
type FS struct {
	img *Image
	tbl *fio.Table
}

// New creates a provider for img.
func New(img *Image, tbl *fio.Table) *FS {
	return &FS{img: img, tbl: tbl}
}

// Open implements filesystem.Provider. Only read access is granted.
func (f *FS) Open(rel string, flags int, _ uint32) (int, error) {
	if flags&fio.O_ACCMODE != fio.O_RDONLY {
		return -1, fmt.Errorf("open %s: %w", rel, ErrReadOnly)
	}
	e, ok := f.img.Lookup(rel)
	if !ok {
		return -1, fmt.Errorf("open %s: %w", rel, fs.ErrNotExist)
	}
	if e.IsDir() {
		return -1, fmt.Errorf("open %s: is a directory: %w", rel, fs.ErrInvalid)
	}
	r := bytes.NewReader(e.Content)
	return f.tbl.Open(fio.Descriptor{Reader: r, Seeker: r, State: e})
}

// Mount implements filesystem.Mounter over the direct children of rel. The
// cursor is the index of the next candidate entry.
func (f *FS) Mount(rel string, cur filesystem.Cursor, attr *fattr.Attr) (filesystem.Cursor, bool) {
	rel = strings.Trim(rel, "/")
	i, _ := cur.(int)
	i = f.nextChild(rel, i)
	if i < 0 {
		return nil, false
	}
	e := f.img.entries[i]
	base, _ := childOf(rel, e.Name)
	*attr = e
	attr.Name = base
	attr.Hash = fattr.Hash(base)

	next := f.nextChild(rel, i+1)
	if next < 0 {
		return nil, true
	}
	return next, true
}

func (f *FS) nextChild(dir string, from int) int {
	for i := from; i < len(f.img.entries); i++ {
		if _, ok := childOf(dir, f.img.entries[i].Name); ok {
			return i
		}
	}
	return -1
}
