package app

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/drivers"

	"rtshell/hal"
	"rtshell/rtos/romfs"
)

type scriptUART struct {
	mu   sync.Mutex
	in   []byte
	out  bytes.Buffer
	idle bool
}

func (u *scriptUART) Read(p []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := copy(p, u.in)
	u.in = u.in[n:]
	if n == 0 && len(u.in) == 0 && !u.idle {
		return 0, io.EOF
	}
	return n, nil
}

func (u *scriptUART) Write(p []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.out.Write(p)
}

func (u *scriptUART) Buffered() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.in)
}

func (u *scriptUART) written() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.out.String()
}

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }
func (l *lines) WriteLineBytes(b []byte)  { *l = append(*l, string(b)) }

type fakeHAL struct {
	uart *scriptUART
	log  lines
}

func (h *fakeHAL) Serial() drivers.UART { return h.uart }
func (h *fakeHAL) Logger() hal.Logger   { return &h.log }
func (h *fakeHAL) Close() error         { return nil }

func runScript(t *testing.T, cfg Config, script string) string {
	t.Helper()
	h := &fakeHAL{uart: &scriptUART{in: []byte(script)}}
	sys, err := New(h, cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sys.Run(ctx), "shell should exit on hangup")
	return h.uart.written()
}

func TestSystem_SessionOverSerial(t *testing.T) {
	out := runScript(t, Config{Hostname: "bench"}, "cat /romfs/etc/motd\rsu root\rwhoami\rls -l /romfs/etc\r")

	assert.True(t, strings.HasPrefix(out, "rtshell "), out)
	assert.Contains(t, out, "guest@bench:/# cat /romfs/etc/motd\r\nWelcome to rtshell.")
	assert.Contains(t, out, "root@bench:/# whoami\r\nroot\r\n")
	assert.Contains(t, out, "-rw-------")
	assert.True(t, strings.HasSuffix(out, "root@bench:/# "), out)
}

func TestSystem_GuestCannotReadAccounts(t *testing.T) {
	out := runScript(t, Config{}, "cat /romfs/etc/passwd\rls /dev\r")
	assert.Contains(t, out, "cat: /romfs/etc/passwd: Permission denied\r\n")
}

func TestSystem_CustomImage(t *testing.T) {
	b := romfs.NewBuilder()
	require.NoError(t, b.AddFile("hello.txt", 0o644, []byte("hi there\n")))
	out := runScript(t, Config{RomFS: b.Bytes()}, "cat /romfs/hello.txt\r")
	assert.Contains(t, out, "hi there\r\n")
}

func TestNew_CorruptImage(t *testing.T) {
	h := &fakeHAL{uart: &scriptUART{}}
	_, err := New(h, Config{RomFS: []byte("RTFS")}, nil)
	assert.ErrorIs(t, err, romfs.ErrCorrupt)
}

func TestSystem_StopsOnCancel(t *testing.T) {
	h := &fakeHAL{uart: &scriptUART{idle: true}}
	sys, err := New(h, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sys.Run(ctx), context.Canceled)
}

func TestDefaultImage(t *testing.T) {
	data, err := DefaultImage()
	require.NoError(t, err)
	img, err := romfs.Parse(data)
	require.NoError(t, err)

	a, ok := img.Lookup("etc/passwd")
	require.True(t, ok)
	assert.Equal(t, "-rw-------", a.ModeString())
	_, ok = img.Lookup("etc/motd")
	assert.True(t, ok)
}
