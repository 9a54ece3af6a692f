// Package fattr defines the directory entry record shared by mount providers,
// the mount registry and the descriptor table.
package fattr

import "strings"

// Mode bits. The layout follows the classic st_mode encoding.
const (
	ModeTypeMask   uint32 = 0o170000
	ModeDir        uint32 = 0o040000
	ModeRegular    uint32 = 0o100000
	ModeCharDevice uint32 = 0o020000

	ModePerm uint32 = 0o777

	PermOtherRead uint32 = 0o004
)

// Attr describes one directory entry.
//
// Name and Content are borrowed from the provider's storage and must not be
// modified.
type Attr struct {
	Hash    uint32
	Name    string
	Mode    uint32
	Size    int
	Content []byte
}

// IsDir reports whether the entry is a directory.
func (a Attr) IsDir() bool { return a.Mode&ModeTypeMask == ModeDir }

// IsHidden reports whether the entry name starts with a dot.
func (a Attr) IsHidden() bool { return strings.HasPrefix(a.Name, ".") }

// ModeString renders the mode the way ls -l does, e.g. "drwxr-xr-x".
func (a Attr) ModeString() string {
	var b [10]byte
	switch a.Mode & ModeTypeMask {
	case ModeDir:
		b[0] = 'd'
	case ModeCharDevice:
		b[0] = 'c'
	case ModeRegular:
		b[0] = '-'
	default:
		b[0] = '?'
	}
	const rwx = "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if a.Mode&(1<<uint(8-i)) != 0 {
			b[i+1] = rwx[i]
		} else {
			b[i+1] = '-'
		}
	}
	return string(b[:])
}

// Hash returns the djb2 (xor variant) hash of name. Mount points, device
// names and romfs entries are all keyed by it.
func Hash(name string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(name); i++ {
		h = h*33 ^ uint32(name[i])
	}
	return h
}
