package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fill(h *History, lines ...string) {
	for _, l := range lines {
		h.Record(l)
		h.Advance()
	}
}

func TestHistory_Substitute(t *testing.T) {
	h := NewHistory(8, 128)
	fill(h, "ls -l", "cat file.txt")

	assert.Equal(t, "ls -l extra", h.Substitute("!ls extra"))
	assert.Equal(t, "echo cat file.txt", h.Substitute("echo !ca"))
	assert.Equal(t, "ls -l && cat file.txt", h.Substitute("!l && !c"))
	assert.Equal(t, "!nothing here", h.Substitute("!nothing here"))
	assert.Equal(t, "a ! b", h.Substitute("a ! b"))
}

func TestHistory_NewestMatchWins(t *testing.T) {
	h := NewHistory(4, 128)
	fill(h, "echo one", "echo two")
	assert.Equal(t, "echo two", h.Substitute("!echo"))
}

func TestHistory_ExcludesCurrentSlot(t *testing.T) {
	h := NewHistory(4, 128)
	h.Record("!self")
	assert.Equal(t, "!self", h.Substitute("!self"))
}

func TestHistory_SplicedTextNotRescanned(t *testing.T) {
	h := NewHistory(4, 128)
	fill(h, "echo !x", "x marks")
	assert.Equal(t, "echo !x", h.Substitute("!echo"))
}

func TestHistory_RingOverwritesOldest(t *testing.T) {
	h := NewHistory(3, 128)
	fill(h, "a1", "b2", "c3", "d4")
	h.Record("now")

	assert.Equal(t, []string{"c3", "d4", "now"}, h.Entries())
	assert.Equal(t, "!a1", h.Substitute("!a1"))
	assert.Equal(t, "c3", h.Substitute("!c"))
}

func TestHistory_RecordTruncates(t *testing.T) {
	h := NewHistory(2, 5)
	assert.Equal(t, "abcd", h.Record("abcdefgh"))
	assert.Equal(t, 2, h.Cap())
}

func TestEnv(t *testing.T) {
	e := NewEnv(2)
	assert.NoError(t, e.Set("A", "1"))
	assert.NoError(t, e.Set("A", "2"))
	v, ok := e.Get("A")
	assert.True(t, ok)
	assert.Equal(t, "2", v)

	assert.NoError(t, e.Set("B", ""))
	assert.ErrorIs(t, e.Set("C", "3"), ErrEnvFull)
	assert.Equal(t, 2, e.Len())

	assert.ErrorIs(t, e.Set("USER", "x"), ErrReadOnly)
	assert.ErrorIs(t, e.Set("A", "0123456789abcdef"), ErrEnvTooLong)
	assert.ErrorIs(t, e.Set("0123456789abcdef", "v"), ErrEnvTooLong)
	assert.ErrorIs(t, e.Set("", "v"), ErrEnvTooLong)

	var names []string
	e.Each(func(name, _ string) { names = append(names, name) })
	assert.Equal(t, []string{"A", "B"}, names)
}
