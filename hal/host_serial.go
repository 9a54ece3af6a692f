//go:build !tinygo

package hal

import (
	"io"
	"sync"
	"sync/atomic"
)

// HostRxBuffer is the number of received bytes the host port holds before
// the reader goroutine stalls, like a UART FIFO.
const HostRxBuffer = 256

const ctrlD = 0x04

type hostSerial struct {
	mu sync.Mutex
	w  io.Writer

	rx    chan byte
	ended atomic.Bool
	eot   bool

	stop     chan struct{}
	stopOnce sync.Once
}

// newHostSerial starts pumping r into the receive FIFO. When eot is set an
// EOT byte (Ctrl-D) ends the stream, for terminals in raw mode where the
// line discipline no longer does that.
func newHostSerial(r io.Reader, w io.Writer, eot bool) *hostSerial {
	s := &hostSerial{w: w, rx: make(chan byte, HostRxBuffer), eot: eot, stop: make(chan struct{})}
	go s.pump(r)
	return s
}

func (s *hostSerial) pump(r io.Reader) {
	defer s.ended.Store(true)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if s.eot && b == ctrlD {
				return
			}
			select {
			case s.rx <- b:
			case <-s.stop:
				return
			}
		}
		if err != nil {
			return
		}
		select {
		case <-s.stop:
			return
		default:
		}
	}
}

// close makes the pump exit. A pump parked in a read of the source exits
// once that read returns.
func (s *hostSerial) close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Buffered reports how many bytes Read can return without waiting.
func (s *hostSerial) Buffered() int { return len(s.rx) }

func (s *hostSerial) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		select {
		case b := <-s.rx:
			p[n] = b
			n++
			continue
		default:
		}
		break
	}
	if n == 0 && s.ended.Load() && len(s.rx) == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *hostSerial) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
