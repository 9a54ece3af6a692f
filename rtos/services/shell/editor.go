package shell

import (
	"rtshell/rtos/fio"
	"rtshell/rtos/kernel"
)

const (
	keyCtrlC = 0x03
	keyBS    = 0x08
	keyESC   = 0x1b
	keyDEL   = 0x7f
)

// readByte waits for one byte on stdin with the task marked blocked.
func (s *Service) readByte(ctx *kernel.Context) (byte, error) {
	var c [1]byte
	for {
		var n int
		var err error
		ctx.Block(func() {
			n, err = s.tbl.Read(fio.Stdin, c[:])
		})
		if err != nil {
			return 0, err
		}
		if n == 1 {
			return c[0], nil
		}
	}
}

// readLine edits one line with echo. CR or LF ends it; a CR LF pair counts
// once. Escape sequences are swallowed and Ctrl-C discards the line.
func (s *Service) readLine(ctx *kernel.Context) (string, error) {
	line := make([]byte, 0, s.cfg.LineWidth)
	var esc []byte
	for {
		c, err := s.readByte(ctx)
		if err != nil {
			return "", err
		}

		if esc != nil {
			esc = append(esc, c)
			if escapeDone(esc) || len(esc) >= maxEscape {
				esc = nil
			}
			continue
		}

		switch {
		case c == '\r' || c == '\n':
			if c == '\n' && s.lastCR {
				s.lastCR = false
				continue
			}
			s.lastCR = c == '\r'
			_ = s.printString("\n")
			return string(line), nil
		case c == keyDEL || c == keyBS:
			if len(line) > 0 {
				line = line[:len(line)-1]
				_ = s.printString("\b \b")
			}
		case c == keyESC:
			esc = append(make([]byte, 0, maxEscape), c)
		case c == keyCtrlC:
			_ = s.printString("^C\n")
			return "", nil
		case c < 0x20:
		default:
			if len(line) < s.cfg.LineWidth-1 {
				line = append(line, c)
				_, _ = s.tbl.Write(fio.Stdout, []byte{c})
			}
		}
		s.lastCR = false
	}
}
