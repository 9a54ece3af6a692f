package shell

// maxEscape bounds a control sequence; longer input is dropped as garbage.
const maxEscape = 16

// escapeDone reports whether seq, which starts with ESC, is a complete VT100
// sequence: ESC x, or CSI parameters ended by a final byte.
func escapeDone(seq []byte) bool {
	if len(seq) < 2 {
		return false
	}
	if seq[1] != '[' && seq[1] != 'O' {
		return true
	}
	if len(seq) < 3 {
		return false
	}
	if seq[1] == 'O' {
		return true
	}
	last := seq[len(seq)-1]
	return last >= 0x40 && last <= 0x7e
}
