package shell

import (
	"errors"
	"fmt"
)

const (
	DefaultEnvSize = 8
	MaxEnvName     = 15
	MaxEnvValue    = 15
)

var (
	ErrEnvFull    = errors.New("shell: environment full")
	ErrReadOnly   = errors.New("shell: read-only variable")
	ErrEnvTooLong = errors.New("shell: environment entry too long")
	ErrEnvBadName = errors.New("shell: invalid variable name")
)

// userVar is written only by su.
const userVar = "USER"

type envVar struct {
	name  string
	value string
}

// Env is a fixed-capacity table of unique variable names.
type Env struct {
	vars []envVar
	max  int
}

// NewEnv creates a table with room for capacity variables.
func NewEnv(capacity int) *Env {
	if capacity <= 0 {
		capacity = DefaultEnvSize
	}
	return &Env{max: capacity, vars: make([]envVar, 0, capacity)}
}

// Get returns the value of name.
func (e *Env) Get(name string) (string, bool) {
	for _, v := range e.vars {
		if v.name == name {
			return v.value, true
		}
	}
	return "", false
}

// Set defines or replaces name. USER cannot be set this way.
func (e *Env) Set(name, value string) error {
	if name == userVar {
		return fmt.Errorf("%s: %w", name, ErrReadOnly)
	}
	return e.set(name, value)
}

// validName reports whether $ expansion can refer to name.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return false
		}
	}
	return true
}

func (e *Env) set(name, value string) error {
	if !validName(name) {
		return fmt.Errorf("%q: %w", name, ErrEnvBadName)
	}
	if len(name) > MaxEnvName || len(value) > MaxEnvValue {
		return fmt.Errorf("%s: %w", name, ErrEnvTooLong)
	}
	for i := range e.vars {
		if e.vars[i].name == name {
			e.vars[i].value = value
			return nil
		}
	}
	if len(e.vars) >= e.max {
		return fmt.Errorf("%s: %w", name, ErrEnvFull)
	}
	e.vars = append(e.vars, envVar{name: name, value: value})
	return nil
}

// Len returns the number of defined variables.
func (e *Env) Len() int { return len(e.vars) }

// Each calls fn for every variable in definition order.
func (e *Env) Each(fn func(name, value string)) {
	for _, v := range e.vars {
		fn(v.name, v.value)
	}
}
