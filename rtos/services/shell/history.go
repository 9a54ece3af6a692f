package shell

import "strings"

// History is a fixed ring of command lines. The current slot holds the line
// being executed; older slots are overwritten as the ring advances.
type History struct {
	lines []string
	cur   int
	width int
}

// NewHistory creates a ring of capacity lines, each at most width-1 bytes.
func NewHistory(capacity, width int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	if width <= 1 {
		width = DefaultLineWidth
	}
	return &History{lines: make([]string, capacity), width: width}
}

// Cap returns the ring capacity.
func (h *History) Cap() int { return len(h.lines) }

// Record stores line in the current slot, truncated to the line width, and
// returns what was stored.
func (h *History) Record(line string) string {
	if len(line) > h.width-1 {
		line = line[:h.width-1]
	}
	h.lines[h.cur] = line
	return line
}

// Advance moves to the next slot and clears it.
func (h *History) Advance() {
	h.cur = (h.cur + 1) % len(h.lines)
	h.lines[h.cur] = ""
}

// Entries returns the non-empty lines from oldest to newest. The current slot
// is the newest.
func (h *History) Entries() []string {
	out := make([]string, 0, len(h.lines))
	for i := 1; i <= len(h.lines); i++ {
		if l := h.lines[(h.cur+i)%len(h.lines)]; l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Substitute replaces every !word in line with the most recent earlier line
// that starts with word. Unmatched references are left as typed. Spliced text
// is not scanned again.
func (h *History) Substitute(line string) string {
	if strings.IndexByte(line, '!') < 0 {
		return line
	}
	var b strings.Builder
	for i := 0; i < len(line); {
		if line[i] != '!' {
			b.WriteByte(line[i])
			i++
			continue
		}
		end := i + 1
		for end < len(line) && !isBlank(line[end]) {
			end++
		}
		if m, ok := h.match(line[i+1 : end]); ok {
			b.WriteString(m)
		} else {
			b.WriteString(line[i:end])
		}
		i = end
	}
	return b.String()
}

func (h *History) match(word string) (string, bool) {
	if word == "" {
		return "", false
	}
	n := len(h.lines)
	for i := n - 1; i > 0; i-- {
		l := h.lines[(h.cur+i)%n]
		if l != "" && strings.HasPrefix(l, word) {
			return l, true
		}
	}
	return "", false
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }
