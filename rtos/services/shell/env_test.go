package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_SetValidation(t *testing.T) {
	tcs := []struct {
		name  string
		value string
		want  error
	}{
		{name: "", value: "x", want: ErrEnvBadName},
		{name: "A-B", value: "1", want: ErrEnvBadName},
		{name: "A B", value: "1", want: ErrEnvBadName},
		{name: strings.Repeat("N", MaxEnvName+1), value: "1", want: ErrEnvTooLong},
		{name: "V", value: strings.Repeat("v", MaxEnvValue+1), want: ErrEnvTooLong},
		{name: "USER", value: "root", want: ErrReadOnly},
		{name: "_9lives", value: "ok"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEnv(4)
			err := e.Set(tc.name, tc.value)
			if tc.want == nil {
				require.NoError(t, err)
				v, ok := e.Get(tc.name)
				assert.True(t, ok)
				assert.Equal(t, tc.value, v)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, e.Len())
		})
	}
}

func TestEnv_UserAcceptsAccountNames(t *testing.T) {
	e := NewEnv(2)
	require.NoError(t, e.set(userVar, "web-admin.1"))
	v, _ := e.Get(userVar)
	assert.Equal(t, "web-admin.1", v)
}
