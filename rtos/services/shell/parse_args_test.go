package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tcs := []struct {
		line string
		args []string
	}{
		{line: `echo  "a b"  c`, args: []string{"echo", "a b", "c"}},
		{line: "ls\t-l", args: []string{"ls", "-l"}},
		{line: `echo 'it"s'`, args: []string{"echo", `it"s`}},
		{line: `echo "don't"`, args: []string{"echo", "don't"}},
		{line: `echo a"b c"d`, args: []string{"echo", "ab cd"}},
		{line: `echo "open ended`, args: []string{"echo", "open ended"}},
		{line: `echo 'x`, args: []string{"echo", "x"}},
		{line: "   ", args: nil},
		{line: `echo ""`, args: []string{"echo"}},
		{line: `echo a\ b`, args: []string{"echo", `a\`, "b"}},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.args, tokenize(tc.line), "tokenize(%q)", tc.line)
	}
}

func TestTokenize_DropsExtraArgs(t *testing.T) {
	line := "cmd" + strings.Repeat(" x", 30)
	args := tokenize(line)
	assert.Len(t, args, MaxArgs)
	assert.Equal(t, "cmd", args[0])
}

func TestExpand(t *testing.T) {
	env := NewEnv(4)
	assert.NoError(t, env.Set("FOO", "bar"))
	assert.NoError(t, env.Set("A_1", "x"))

	tcs := []struct {
		in, want string
	}{
		{in: "$FOO-baz", want: "bar-baz"},
		{in: "pre$FOO", want: "prebar"},
		{in: "$FOObar", want: ""},
		{in: "$NOPE-baz", want: "-baz"},
		{in: "$A_1$FOO", want: "xbar"},
		{in: "a$", want: "a"},
		{in: "$-x", want: "-x"},
		{in: "a.b/c", want: "a.b/c"},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.want, expand(tc.in, env), "expand(%q)", tc.in)
	}
}

func TestEscapeDone(t *testing.T) {
	tcs := []struct {
		seq  string
		done bool
	}{
		{seq: "\x1b", done: false},
		{seq: "\x1b[", done: false},
		{seq: "\x1b[A", done: true},
		{seq: "\x1b[3", done: false},
		{seq: "\x1b[3~", done: true},
		{seq: "\x1b[1;5C", done: true},
		{seq: "\x1bO", done: false},
		{seq: "\x1bOP", done: true},
		{seq: "\x1bc", done: true},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.done, escapeDone([]byte(tc.seq)), "%q", tc.seq)
	}
}
