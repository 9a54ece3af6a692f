package shell

import (
	"errors"
	"fmt"
	"io"

	"rtshell/rtos/internal/accounts"
)

// rootToken is a temporary root capability. While held, permission checks
// pass regardless of USER. The environment is never touched.
type rootToken struct {
	s *Service
}

func (s *Service) acquireRoot() *rootToken {
	s.rootHolds++
	return &rootToken{s: s}
}

// Release drops the capability. It is safe to call more than once.
func (t *rootToken) Release() {
	if t.s == nil {
		return
	}
	t.s.rootHolds--
	t.s = nil
}

// loadAccounts reads the account list with a root token held for the read
// only.
func (s *Service) loadAccounts() ([]string, error) {
	tok := s.acquireRoot()
	lines, err := s.readLines(s.cfg.Accounts, accounts.MaxFileBytes)
	tok.Release()
	if err != nil {
		return nil, err
	}
	return accounts.ParseLines(lines)
}

// readLines reads path one line at a time. It fails with
// accounts.ErrTooLarge once more than max bytes have been read.
func (s *Service) readLines(path string, max int) ([]string, error) {
	fd, err := s.openRead(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = s.tbl.Close(fd) }()

	var lines []string
	total := 0
	for {
		line, err := s.tbl.Getline(fd, max+1)
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		total += len(line) + 1
		if total > max+1 {
			return nil, accounts.ErrTooLarge
		}
		lines = append(lines, line)
	}
}

// switchUser authenticates target against the account list and commits it as
// USER. On any failure USER keeps its old value.
func (s *Service) switchUser(target string) error {
	if target == "" {
		target = s.cfg.User
	}
	if target == s.User() {
		return nil
	}
	if target != s.cfg.User {
		users, err := s.loadAccounts()
		if err != nil {
			s.log.Warn("Account list unavailable", "path", s.cfg.Accounts, "err", err)
			return failf(err, "su: %s: %s", s.cfg.Accounts, reason(err))
		}
		if !accounts.Find(users, target) {
			return failf(ErrAuthDenied, "su: Unknown id: %s", target)
		}
	}
	if err := s.env.set(userVar, target); err != nil {
		return fmt.Errorf("su: %w", err)
	}
	s.log.Info("User switched", "user", target)
	return nil
}
