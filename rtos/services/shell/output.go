package shell

import (
	"errors"
	"fmt"

	"rtshell/rtos/fio"
)

// cmdError carries the exact diagnostic a command wants on stderr. An empty
// message means the command already printed its own.
type cmdError struct {
	msg string
	err error
}

func (e *cmdError) Error() string { return e.msg }
func (e *cmdError) Unwrap() error { return e.err }

func failf(err error, format string, args ...any) error {
	return &cmdError{msg: fmt.Sprintf(format, args...), err: err}
}

func usageError(usage string) error {
	return failf(ErrUsage, "usage: %s", usage)
}

func (s *Service) printString(str string) error {
	_, err := s.tbl.WriteString(fio.Stdout, str)
	return err
}

func (s *Service) printf(format string, args ...any) error {
	return s.printString(fmt.Sprintf(format, args...))
}

func (s *Service) errorString(str string) {
	_, _ = s.tbl.WriteString(fio.Stderr, str)
}

// reason is the short text for err used after a "cmd: path: " prefix.
func reason(err error) string {
	switch {
	case errors.Is(err, ErrIsDir):
		return "Is a directory"
	case errors.Is(err, ErrNotDir):
		return "Not a directory"
	}
	return fio.Message(err)
}

// report prints a failed command's diagnostic.
func (s *Service) report(name string, err error) {
	var ce *cmdError
	if errors.As(err, &ce) {
		if ce.msg != "" {
			s.errorString(ce.msg + "\n")
		}
		return
	}
	if errors.Is(err, ErrIsDir) || errors.Is(err, ErrNotDir) {
		s.errorString(name + ": " + reason(err) + "\n")
		return
	}
	s.tbl.Perror(name, err)
}
