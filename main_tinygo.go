//go:build tinygo

package main

import (
	"context"

	"rtshell/app"
	"rtshell/hal"
)

func main() {
	h, err := hal.New()
	if err != nil {
		panic(err)
	}
	// The console UART carries the shell; structured logs are dropped on
	// the board and task panics go to the HAL logger instead.
	sys, err := app.New(h, app.Config{}, nil)
	if err != nil {
		h.Logger().WriteLineString("rtshell: " + err.Error())
		select {}
	}
	for {
		_ = sys.Run(context.Background())
		h.Logger().WriteLineString("rtshell: console closed, restarting")
		if sys, err = app.New(h, app.Config{}, nil); err != nil {
			select {}
		}
	}
}
