//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
	"tinygo.org/x/drivers"
)

type hostHAL struct {
	logger *hostLogger
	serial *hostSerial

	fd       int
	oldState *term.State
	closed   sync.Once
}

// New returns a host HAL whose console is the process's stdin and stdout
// and whose diagnostic lines go to stderr.
func New() (HAL, error) {
	return NewHost(os.Stdin, os.Stdout, os.Stderr)
}

// NewHost returns a host HAL over the given streams. When in is a terminal it
// is switched to raw mode so the shell sees every keystroke; Close restores
// it.
func NewHost(in *os.File, out, diag io.Writer) (HAL, error) {
	h := &hostHAL{logger: &hostLogger{w: diag}, fd: -1}
	raw := false
	if in != nil && term.IsTerminal(int(in.Fd())) {
		h.fd = int(in.Fd())
		st, err := term.MakeRaw(h.fd)
		if err != nil {
			return nil, fmt.Errorf("hal: raw mode: %w", err)
		}
		h.oldState = st
		raw = true
	}
	var r io.Reader = in
	if in == nil {
		r = eofReader{}
	}
	h.serial = newHostSerial(r, out, raw)
	return h, nil
}

func (h *hostHAL) Serial() drivers.UART { return h.serial }
func (h *hostHAL) Logger() Logger       { return h.logger }

func (h *hostHAL) Close() error {
	var err error
	h.closed.Do(func() {
		h.serial.close()
		if h.oldState != nil {
			err = term.Restore(h.fd, h.oldState)
		}
	})
	return err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
