//go:build tinygo

package hal

import (
	"machine"

	"tinygo.org/x/drivers"
)

type tinyGoHAL struct {
	uart   *machine.UART
	logger *uartLogger
}

// New returns the board HAL.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
func New() (HAL, error) {
	uart := machine.UART0
	if err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	}); err != nil {
		return nil, err
	}
	return &tinyGoHAL{uart: uart, logger: &uartLogger{uart: uart}}, nil
}

func (h *tinyGoHAL) Serial() drivers.UART { return h.uart }
func (h *tinyGoHAL) Logger() Logger       { return h.logger }
func (h *tinyGoHAL) Close() error         { return nil }
