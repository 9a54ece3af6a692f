// Package config resolves the host runtime settings from a dotenv-style file
// and command line flags. Flags win over the file, the file wins over the
// defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"rtshell/rtos/fio"
	"rtshell/rtos/services/shell"
)

// File keys.
const (
	KeyHostname = "RTSHELL_HOSTNAME"
	KeyUser     = "RTSHELL_USER"
	KeyRomFS    = "RTSHELL_ROMFS"
	KeyAccounts = "RTSHELL_ACCOUNTS"
	KeyHistory  = "RTSHELL_HISTORY"
	KeyMaxFDs   = "RTSHELL_MAX_FDS"
	KeyLogLevel = "RTSHELL_LOG_LEVEL"
	KeyLogFile  = "RTSHELL_LOG"
)

var ErrInvalid = errors.New("config: invalid value")

// Config holds the resolved settings.
type Config struct {
	Hostname string
	User     string
	// RomFS is a romfs image path. Empty selects the built-in image.
	RomFS    string
	Accounts string
	History  int
	MaxFDs   int
	LogLevel slog.Level
	// LogFile receives the structured log. Empty means stderr.
	LogFile string
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Hostname: shell.DefaultHostname,
		User:     shell.DefaultUser,
		Accounts: shell.DefaultAccounts,
		History:  shell.DefaultHistorySize,
		MaxFDs:   fio.DefaultMaxFDs,
		LogLevel: slog.LevelWarn,
	}
}

// Parse reads args (without the program name). A -config file is applied
// first, then every flag that was given explicitly.
func Parse(name string, args []string, usage io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(usage)

	def := Default()
	path := fs.String("config", "", "Read settings from a dotenv file.")
	fs.String("romfs", "", "Mount this romfs image instead of the built-in one.")
	fs.String("hostname", def.Hostname, "Hostname shown in the prompt.")
	fs.String("user", def.User, "Login user.")
	fs.String("accounts", def.Accounts, "Account list consulted by su.")
	fs.Int("history", def.History, "Number of history lines.")
	fs.Int("max-fds", def.MaxFDs, "Descriptor table size.")
	fs.String("log", "", "Write logs to this file instead of stderr.")
	fs.String("log-level", def.LogLevel.String(), "Log level (debug, info, warn, error).")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := def
	if *path != "" {
		m, err := godotenv.Read(*path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		for k, v := range m {
			if err := cfg.set(k, v); err != nil {
				return Config{}, err
			}
		}
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && err == nil {
			err = cfg.set(key, f.Value.String())
		}
	})
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var flagKeys = map[string]string{
	"romfs":     KeyRomFS,
	"hostname":  KeyHostname,
	"user":      KeyUser,
	"accounts":  KeyAccounts,
	"history":   KeyHistory,
	"max-fds":   KeyMaxFDs,
	"log":       KeyLogFile,
	"log-level": KeyLogLevel,
}

// set applies one key. Unknown keys are ignored so one file can configure
// several tools.
func (c *Config) set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case KeyHostname:
		c.Hostname = value
	case KeyUser:
		if value == "" || len(value) > shell.MaxEnvValue {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, key, value)
		}
		c.User = value
	case KeyRomFS:
		c.RomFS = value
	case KeyAccounts:
		c.Accounts = value
	case KeyHistory:
		return setPositive(&c.History, key, value)
	case KeyMaxFDs:
		if err := setPositive(&c.MaxFDs, key, value); err != nil {
			return err
		}
		if c.MaxFDs < 3 {
			return fmt.Errorf("%w: %s=%d, stdio needs 3", ErrInvalid, key, c.MaxFDs)
		}
	case KeyLogLevel:
		if err := c.LogLevel.UnmarshalText([]byte(value)); err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, key, value)
		}
	case KeyLogFile:
		c.LogFile = value
	}
	return nil
}

func setPositive(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("%w: %s=%q", ErrInvalid, key, value)
	}
	*dst = n
	return nil
}
