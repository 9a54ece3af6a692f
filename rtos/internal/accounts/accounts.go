// Package accounts parses the account list consulted by su.
package accounts

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultPath is where the runtime expects the account list.
	DefaultPath = "/romfs/etc/passwd"

	// MaxFileBytes bounds parsing to avoid allocation bombs.
	MaxFileBytes = 2048

	MaxUsers   = 32
	MaxNameLen = 15
)

var (
	ErrEmpty    = errors.New("accounts: no users")
	ErrTooLarge = errors.New("accounts: file too large")
)

// Parse reads one user name per line. Blank lines and lines starting with #
// are skipped; anything after the first colon is ignored so passwd-style
// lines also work.
func Parse(b []byte) ([]string, error) {
	if len(b) > MaxFileBytes {
		return nil, ErrTooLarge
	}
	return ParseLines(strings.Split(string(b), "\n"))
}

// ParseLines is Parse for input already split into lines.
func ParseLines(lines []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{}, 8)
	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		if err := validateName(name); err != nil {
			return nil, fmt.Errorf("accounts: line %d: %w", n+1, err)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) > MaxUsers {
			return nil, fmt.Errorf("accounts: more than %d users", MaxUsers)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// Find reports whether name is in users.
func Find(users []string, name string) bool {
	for _, u := range users {
		if u == name {
			return true
		}
	}
	return false
}

func validateName(name string) error {
	if name == "" || len(name) > MaxNameLen {
		return fmt.Errorf("bad user name %q", name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '_' || ch == '-' || ch == '.':
		default:
			return fmt.Errorf("bad user name %q", name)
		}
	}
	return nil
}
