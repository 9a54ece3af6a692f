// Package romfs implements the read-only archive filesystem: its image
// format, a builder, and a mount provider.
//
// Image layout, little endian:
//
//	"RTFS" | u32 version | u32 count
//	count x { u32 hash | u32 mode | u32 size | u16 namelen | name | content }
//	32-byte BLAKE3 digest of everything above
//
// Names are slash separated paths relative to the mount point. Directories
// are explicit entries with ModeDir set.
package romfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"rtshell/rtos/fattr"
)

const (
	Magic      = "RTFS"
	Version    = 1
	DigestSize = 32

	headerSize = 12
	entryFixed = 14
)

var (
	ErrCorrupt  = errors.New("romfs: corrupt image")
	ErrReadOnly = errors.New("romfs: read-only filesystem")
)

// Image is a parsed archive. Entry contents alias the parsed buffer.
type Image struct {
	entries []fattr.Attr
	digest  [DigestSize]byte
}

// Parse validates data and indexes its entries. data must stay unmodified for
// the life of the image.
func Parse(data []byte) (*Image, error) {
	if len(data) < headerSize+DigestSize {
		return nil, fmt.Errorf("%w: short image (%d bytes)", ErrCorrupt, len(data))
	}
	body := data[:len(data)-DigestSize]
	var img Image
	copy(img.digest[:], data[len(body):])
	if sum := blake3.Sum256(body); !bytes.Equal(sum[:], img.digest[:]) {
		return nil, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	if string(body[:4]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, body[:4])
	}
	if v := binary.LittleEndian.Uint32(body[4:]); v != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	count := binary.LittleEndian.Uint32(body[8:])

	off := headerSize
	for i := uint32(0); i < count; i++ {
		if len(body)-off < entryFixed {
			return nil, fmt.Errorf("%w: entry %d truncated", ErrCorrupt, i)
		}
		h := binary.LittleEndian.Uint32(body[off:])
		mode := binary.LittleEndian.Uint32(body[off+4:])
		size := int(binary.LittleEndian.Uint32(body[off+8:]))
		nlen := int(binary.LittleEndian.Uint16(body[off+12:]))
		off += entryFixed
		if nlen == 0 || len(body)-off < nlen {
			return nil, fmt.Errorf("%w: entry %d name out of bounds", ErrCorrupt, i)
		}
		name := string(body[off : off+nlen])
		off += nlen
		if size < 0 || len(body)-off < size {
			return nil, fmt.Errorf("%w: entry %q content out of bounds", ErrCorrupt, name)
		}
		if fattr.Hash(name) != h {
			return nil, fmt.Errorf("%w: entry %q hash mismatch", ErrCorrupt, name)
		}
		img.entries = append(img.entries, fattr.Attr{
			Hash:    h,
			Name:    name,
			Mode:    mode,
			Size:    size,
			Content: body[off : off+size : off+size],
		})
		off += size
	}
	if off != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(body)-off)
	}
	return &img, nil
}

// Len returns the number of entries.
func (img *Image) Len() int { return len(img.entries) }

// Digest returns the BLAKE3 digest stored in the image.
func (img *Image) Digest() [DigestSize]byte { return img.digest }

// Lookup finds the entry stored under path.
func (img *Image) Lookup(path string) (fattr.Attr, bool) {
	path = strings.Trim(path, "/")
	h := fattr.Hash(path)
	for _, e := range img.entries {
		if e.Hash == h && e.Name == path {
			return e, true
		}
	}
	return fattr.Attr{}, false
}

// TotalSize sums the sizes of all regular files.
func (img *Image) TotalSize() int {
	n := 0
	for _, e := range img.entries {
		n += e.Size
	}
	return n
}

// childOf reports whether name is a direct child of dir and returns its base.
func childOf(dir, name string) (string, bool) {
	if dir != "" {
		if !strings.HasPrefix(name, dir) || len(name) <= len(dir) || name[len(dir)] != '/' {
			return "", false
		}
		name = name[len(dir)+1:]
	}
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}
