package fio

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtshell/rtos/fattr"
)

type closeCounter struct {
	n   int
	err error
}

func (c *closeCounter) Close() error {
	c.n++
	return c.err
}

func TestOpenClose_Lifecycle(t *testing.T) {
	tbl := New(4)
	cc := &closeCounter{}

	fd, err := tbl.Open(Descriptor{Reader: strings.NewReader("x"), Closer: cc})
	require.NoError(t, err)
	assert.Equal(t, 0, fd)
	assert.True(t, tbl.IsOpen(fd))

	require.NoError(t, tbl.Close(fd))
	assert.False(t, tbl.IsOpen(fd))
	assert.Equal(t, 1, cc.n)

	assert.ErrorIs(t, tbl.Close(fd), ErrNotOpen)
	assert.Equal(t, 1, cc.n)
}

func TestOpen_ReusesLowestSlot(t *testing.T) {
	tbl := New(4)
	for i := 0; i < 3; i++ {
		fd, err := tbl.Open(Descriptor{State: i})
		require.NoError(t, err)
		require.Equal(t, i, fd)
	}
	require.NoError(t, tbl.Close(1))

	fd, err := tbl.Open(Descriptor{State: "again"})
	require.NoError(t, err)
	assert.Equal(t, 1, fd)
}

func TestOpen_FullTableUnchanged(t *testing.T) {
	tbl := New(2)
	_, err := tbl.Open(Descriptor{State: "a"})
	require.NoError(t, err)
	_, err = tbl.Open(Descriptor{State: "b"})
	require.NoError(t, err)

	fd, err := tbl.Open(Descriptor{State: "c"})
	assert.ErrorIs(t, err, ErrAlloc)
	assert.Equal(t, -1, fd)

	assert.Equal(t, "a", tbl.fds[0].State)
	assert.Equal(t, "b", tbl.fds[1].State)
}

func TestOpen_EmptyDescriptorRejected(t *testing.T) {
	tbl := New(2)
	_, err := tbl.Open(Descriptor{})
	assert.ErrorIs(t, err, ErrEmpty)
	assert.False(t, tbl.IsOpen(0))
}

func TestIO_NotOpenAndUnsupported(t *testing.T) {
	tbl := New(2)
	buf := make([]byte, 4)

	for _, fd := range []int{-1, 0, 2, 99} {
		_, err := tbl.Read(fd, buf)
		assert.ErrorIs(t, err, ErrNotOpen, "read fd=%d", fd)
		_, err = tbl.Write(fd, buf)
		assert.ErrorIs(t, err, ErrNotOpen, "write fd=%d", fd)
		_, err = tbl.Seek(fd, 0, io.SeekStart)
		assert.ErrorIs(t, err, ErrNotOpen, "seek fd=%d", fd)
	}

	var out bytes.Buffer
	fd, err := tbl.Open(Descriptor{Writer: &out})
	require.NoError(t, err)

	_, err = tbl.Read(fd, buf)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = tbl.Seek(fd, 0, io.SeekStart)
	assert.ErrorIs(t, err, ErrUnsupported)

	n, err := tbl.WriteString(fd, "hello")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", out.String())
}

func TestSeekAndRead(t *testing.T) {
	tbl := New(2)
	r := strings.NewReader("abcdef")
	fd, err := tbl.Open(Descriptor{Reader: r, Seeker: r})
	require.NoError(t, err)

	off, err := tbl.Seek(fd, 2, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(2), off)

	buf := make([]byte, 3)
	n, err := tbl.Read(fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "cde", string(buf[:n]))
}

func TestClose_FreesSlotOnCloserError(t *testing.T) {
	tbl := New(1)
	boom := errors.New("boom")
	fd, err := tbl.Open(Descriptor{Closer: &closeCounter{err: boom}})
	require.NoError(t, err)

	assert.ErrorIs(t, tbl.Close(fd), boom)
	assert.False(t, tbl.IsOpen(fd))
}

// gatedCloser parks every Close until released and counts the calls that
// reached it.
type gatedCloser struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	n       int
}

func (g *gatedCloser) Close() error {
	g.mu.Lock()
	g.n++
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	return nil
}

func (g *gatedCloser) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

func TestClose_ConcurrentCloseRunsCloserOnce(t *testing.T) {
	tbl := New(2)
	gc := &gatedCloser{entered: make(chan struct{}, 2), release: make(chan struct{})}
	fd, err := tbl.Open(Descriptor{Closer: gc})
	require.NoError(t, err)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- tbl.Close(fd) }()
	}

	// One close is parked in the closer; the other must fail without it.
	<-gc.entered
	assert.ErrorIs(t, <-errs, ErrNotOpen)

	// The slot is free while the closer still runs and goes to a new owner.
	reused, err := tbl.Open(Descriptor{State: "reused"})
	require.NoError(t, err)
	assert.Equal(t, fd, reused)

	close(gc.release)
	assert.NoError(t, <-errs)

	assert.Equal(t, 1, gc.calls())
	assert.True(t, tbl.IsOpen(reused), "late closer must not free the reused slot")
	assert.Equal(t, "reused", tbl.fds[reused].State)
}

// blockingReader blocks until released, to prove reads do not hold the lock.
type blockingReader struct {
	release chan struct{}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	<-b.release
	p[0] = 'z'
	return 1, nil
}

func TestRead_DoesNotHoldTableLock(t *testing.T) {
	tbl := New(4)
	br := &blockingReader{release: make(chan struct{})}
	fd, err := tbl.Open(Descriptor{Reader: br})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 1)
		n, err := tbl.Read(fd, buf)
		assert.NoError(t, err)
		assert.Equal(t, 1, n)
	}()

	// Open and close proceed while the read is parked.
	other, err := tbl.Open(Descriptor{State: "other"})
	require.NoError(t, err)
	require.NoError(t, tbl.Close(other))

	close(br.release)
	wg.Wait()
}

func TestConcurrentOpenClose(t *testing.T) {
	tbl := New(8)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				fd, err := tbl.Open(Descriptor{State: j})
				if err != nil {
					assert.ErrorIs(t, err, ErrAlloc)
					continue
				}
				assert.NoError(t, tbl.Close(fd))
			}
		}()
	}
	wg.Wait()
	for fd := 0; fd < tbl.Cap(); fd++ {
		assert.False(t, tbl.IsOpen(fd))
	}
}

type sliceIter struct {
	ents []fattr.Attr
	i    int
}

func (s *sliceIter) Next(attr *fattr.Attr) bool {
	if s.i >= len(s.ents) {
		return false
	}
	*attr = s.ents[s.i]
	s.i++
	return true
}

type sliceLister struct {
	ents []fattr.Attr
	err  error
}

func (l sliceLister) OpenDir(string) (DirIter, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &sliceIter{ents: l.ents}, nil
}

func TestList(t *testing.T) {
	tbl := New(2)
	src := sliceLister{ents: []fattr.Attr{{Name: "a"}, {Name: "b"}, {Name: "c"}}}

	out := make([]fattr.Attr, 2)
	n, err := tbl.List(src, "/x", out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "b", out[1].Name)

	out = make([]fattr.Attr, 8)
	n, err = tbl.List(src, "/x", out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = tbl.List(sliceLister{err: fs.ErrNotExist}, "/y", out)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestGetline(t *testing.T) {
	tbl := New(2)
	fd, err := tbl.Open(Descriptor{Reader: strings.NewReader("first\r\nsecond")})
	require.NoError(t, err)

	line, err := tbl.Getline(fd, 64)
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = tbl.Getline(fd, 64)
	require.NoError(t, err)
	assert.Equal(t, "", line)

	line, err = tbl.Getline(fd, 4)
	require.NoError(t, err)
	assert.Equal(t, "sec", line)

	line, err = tbl.Getline(fd, 64)
	require.NoError(t, err)
	assert.Equal(t, "ond", line)

	_, err = tbl.Getline(fd, 64)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPerrorAndErrno(t *testing.T) {
	tbl := New(4)
	var errOut bytes.Buffer
	for i := 0; i < 3; i++ {
		_, err := tbl.Open(Descriptor{Writer: &errOut})
		require.NoError(t, err)
	}

	tbl.Perror("cat: x", fs.ErrNotExist)
	tbl.Perror("cat: y", fs.ErrPermission)
	assert.Equal(t, "cat: x: No such file or directory\ncat: y: Permission denied\n", errOut.String())

	assert.Equal(t, 0, Errno(nil))
	assert.Equal(t, -1, Errno(ErrAlloc))
	assert.Equal(t, -2, Errno(ErrNotOpen))
	assert.Equal(t, -2, Errno(fs.ErrNotExist))
	assert.Equal(t, -3, Errno(ErrUnsupported))
}
