package fio

import (
	"errors"
	"io/fs"
	"strings"
)

// Getline reads bytes from fd until CR, LF, end of stream, or max-1 bytes.
// It returns io.EOF only when nothing was read and no terminator was seen.
func (t *Table) Getline(fd int, max int) (string, error) {
	var sb strings.Builder
	var c [1]byte
	for sb.Len() < max-1 {
		n, err := t.Read(fd, c[:])
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if n == 0 {
			continue
		}
		if c[0] == '\r' || c[0] == '\n' {
			return sb.String(), nil
		}
		sb.WriteByte(c[0])
	}
	return sb.String(), nil
}

// Perror writes "prefix: message" to stderr.
func (t *Table) Perror(prefix string, err error) {
	msg := Message(err)
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	_, _ = t.WriteString(Stderr, msg+"\n")
}

// Message returns the user-facing text for err.
func Message(err error) string {
	switch {
	case err == nil:
		return "Success"
	case errors.Is(err, fs.ErrPermission):
		return "Permission denied"
	case errors.Is(err, fs.ErrNotExist):
		return "No such file or directory"
	case errors.Is(err, ErrNotOpen):
		return "Bad file descriptor"
	case errors.Is(err, ErrUnsupported):
		return "Operation not supported"
	case errors.Is(err, ErrAlloc):
		return "Too many open files"
	default:
		return err.Error()
	}
}

// Errno maps err onto the numeric codes of the descriptor table: -1 for
// allocation and generic failures, -2 for unknown handles and paths, -3 for
// unsupported operations.
func Errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotOpen), errors.Is(err, fs.ErrNotExist):
		return -2
	case errors.Is(err, ErrUnsupported):
		return -3
	default:
		return -1
	}
}
