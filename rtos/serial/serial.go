// Package serial moves bytes between tasks and a UART.
//
// Transmission follows the single-byte handshake of a TX-empty interrupt: a
// binary semaphore, created given, guards a one-byte slot. SendByte takes the
// semaphore and fills the slot; the TX worker writes the byte to the UART and
// gives the semaphore back. Reception runs the other way: the RX worker polls
// the UART and queues bytes for RecvByte.
package serial

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"tinygo.org/x/drivers"

	"rtshell/rtos/kernel"
)

// RxBufferSize is the number of received bytes queued before the RX worker
// stops draining the UART.
const RxBufferSize = 64

var ErrClosed = errors.New("serial: port closed")

// Port is a byte transport over a UART. Run RunTX and RunRX as kernel tasks.
type Port struct {
	uart drivers.UART
	log  *slog.Logger

	txReady *kernel.Semaphore
	txSlot  chan byte
	rx      chan byte

	done      chan struct{}
	closeOnce sync.Once

	rxEnd      chan struct{}
	hangupOnce sync.Once
}

// New creates a port on uart. A nil logger discards output.
func New(uart drivers.UART, log *slog.Logger) *Port {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Port{
		uart:    uart,
		log:     log,
		txReady: kernel.NewBinarySemaphore(true),
		txSlot:  make(chan byte, 1),
		rx:      make(chan byte, RxBufferSize),
		done:    make(chan struct{}),
		rxEnd:   make(chan struct{}),
	}
}

// SendByte waits until the previous byte has left, then hands b to the TX
// worker. Bytes leave in call order.
func (p *Port) SendByte(b byte) error {
	if !p.txReady.Wait(p.done) {
		return ErrClosed
	}
	select {
	case p.txSlot <- b:
		return nil
	case <-p.done:
		return ErrClosed
	}
}

// RecvByte blocks until a byte arrives. Once the port is closed or the line
// has hung up, and every queued byte is consumed, it returns io.EOF.
func (p *Port) RecvByte() (byte, error) {
	select {
	case b := <-p.rx:
		return b, nil
	case <-p.done:
	case <-p.rxEnd:
	}
	select {
	case b := <-p.rx:
		return b, nil
	default:
		return 0, io.EOF
	}
}

// Close stops both workers and wakes blocked callers.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	return nil
}

// Done is closed by Close.
func (p *Port) Done() <-chan struct{} { return p.done }

// Hangup is closed when the UART reports end of input. Transmission keeps
// working until Close.
func (p *Port) Hangup() <-chan struct{} { return p.rxEnd }

// Flush waits until the last byte handed to SendByte has been written, or
// the port is closed.
func (p *Port) Flush() {
	if p.txReady.Wait(p.done) {
		p.txReady.Give()
	}
}

// RunTX is the transmit worker.
func (p *Port) RunTX(ctx *kernel.Context) {
	var one [1]byte
	for {
		var b byte
		ctx.Block(func() {
			select {
			case b = <-p.txSlot:
			case <-p.done:
			case <-ctx.Done():
			}
		})
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		one[0] = b
		if _, err := p.uart.Write(one[:]); err != nil {
			p.log.Warn("Serial write failed", "err", err)
		}
		p.txReady.GiveFromISR()
	}
}

// RunRX is the receive worker. It returns, closing Hangup, when the UART
// reports end of input.
func (p *Port) RunRX(ctx *kernel.Context) {
	var buf [16]byte
	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		if p.uart.Buffered() == 0 {
			n, err := p.uart.Read(buf[:0])
			if n == 0 && errors.Is(err, io.EOF) {
				p.log.Info("Serial input closed")
				p.hangupOnce.Do(func() { close(p.rxEnd) })
				return
			}
			ctx.BlockOnTick()
			continue
		}

		n, err := p.uart.Read(buf[:])
		for i := 0; i < n; i++ {
			select {
			case p.rx <- buf[i]:
			case <-p.done:
				return
			case <-ctx.Done():
				return
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			p.log.Warn("Serial read failed", "err", err)
		}
	}
}
