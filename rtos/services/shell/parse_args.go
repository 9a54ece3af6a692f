package shell

// MaxArgs bounds the tokens of one command line, command name included.
const MaxArgs = 20

// tokenize splits line on unquoted blanks. Single and double quotes group
// their span and are dropped; the other quote kind is literal inside a span.
// A quote left open at the end of the line is closed there. Tokens past
// MaxArgs are discarded.
func tokenize(line string) []string {
	type state uint8
	const (
		stNone state = iota
		stSingle
		stDouble
	)

	var args []string
	var cur []byte
	st := stNone

	flush := func() {
		if len(cur) == 0 {
			return
		}
		args = append(args, string(cur))
		cur = cur[:0]
	}

	for i := 0; i < len(line) && len(args) < MaxArgs; i++ {
		c := line[i]
		switch st {
		case stSingle:
			if c == '\'' {
				st = stNone
				continue
			}
			cur = append(cur, c)
			continue
		case stDouble:
			if c == '"' {
				st = stNone
				continue
			}
			cur = append(cur, c)
			continue
		}

		switch c {
		case '\'':
			st = stSingle
		case '"':
			st = stDouble
		case ' ', '\t':
			flush()
		default:
			cur = append(cur, c)
		}
	}
	if len(args) < MaxArgs {
		flush()
	}
	return args
}

// expand substitutes $NAME references in tok. Names are runs of letters,
// digits and underscores; undefined names expand to nothing.
func expand(tok string, env *Env) string {
	out := make([]byte, 0, len(tok))
	for i := 0; i < len(tok); i++ {
		if tok[i] != '$' {
			out = append(out, tok[i])
			continue
		}
		j := i + 1
		for j < len(tok) && isNameByte(tok[j]) {
			j++
		}
		if v, ok := env.Get(tok[i+1 : j]); ok {
			out = append(out, v...)
		}
		i = j - 1
	}
	return string(out)
}

func isNameByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
