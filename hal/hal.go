// Package hal is the only contact point between the runtime and the board or
// host it runs on.
package hal

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Logger writes newline-delimited log lines outside the console. It is used
// for diagnostics that must survive a wedged scheduler, such as task panics.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// HAL provides the console UART and a diagnostic line sink.
type HAL interface {
	// Serial returns the console UART. Read never blocks: it returns what
	// Buffered reports. A zero-length Read returns io.EOF once the line has
	// hung up and every received byte has been consumed.
	Serial() drivers.UART
	Logger() Logger
	// Close releases the port and restores any terminal state.
	Close() error
}
