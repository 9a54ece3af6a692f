//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"rtshell/app"
	"rtshell/hal"
	"rtshell/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	var logOut io.Writer = os.Stderr
	noColor := !term.IsTerminal(int(os.Stderr.Fd()))
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		defer f.Close()
		logOut, noColor = f, true
	}
	log := slog.New(tint.NewHandler(logOut, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	}))

	var image []byte
	if cfg.RomFS != "" {
		if image, err = os.ReadFile(cfg.RomFS); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
	}

	h, err := hal.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	sys, err := app.New(h, app.Config{
		Hostname: cfg.Hostname,
		User:     cfg.User,
		Accounts: cfg.Accounts,
		History:  cfg.History,
		MaxFDs:   cfg.MaxFDs,
		RomFS:    image,
	}, log)
	if err != nil {
		_ = h.Close()
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = sys.Run(ctx)
	_ = h.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	fmt.Fprintln(os.Stdout)
	return 0
}
