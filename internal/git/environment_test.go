package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironment_Slice(t *testing.T) {
	t.Run("zero value inherits", func(t *testing.T) {
		var env Environment
		assert.Equal(t, EnvironmentInherit, env.Mode())
		assert.Nil(t, env.Slice())
	})

	t.Run("empty is non-nil", func(t *testing.T) {
		env := EmptyEnvironment()
		assert.NotNil(t, env.Slice())
		assert.Empty(t, env.Slice())
		assert.Nil(t, env.Vars())
	})

	t.Run("explicit is sorted", func(t *testing.T) {
		env := ExplicitEnvironment(map[string]string{"B": "2", "A": "1"})
		assert.Equal(t, []string{"A=1", "B=2"}, env.Slice())
	})
}

func TestEnvironment_ExplicitCopiesMap(t *testing.T) {
	vars := map[string]string{"HOME": "/tmp/home"}
	env := ExplicitEnvironment(vars)

	vars["HOME"] = "/elsewhere"
	assert.Equal(t, "/tmp/home", env.Vars()["HOME"])

	got := env.Vars()
	got["HOME"] = "/mutated"
	assert.Equal(t, "/tmp/home", env.Vars()["HOME"])
}

func TestEnvironmentMode_Text(t *testing.T) {
	for _, mode := range []EnvironmentMode{EnvironmentInherit, EnvironmentEmpty, EnvironmentExplicit} {
		text, err := mode.MarshalText()
		require.NoError(t, err)

		var decoded EnvironmentMode
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, mode, decoded)
		assert.Equal(t, string(text), mode.String())
	}

	var mode EnvironmentMode = EnvironmentEmpty
	require.NoError(t, mode.UnmarshalText(nil))
	assert.Equal(t, EnvironmentInherit, mode)

	assert.Error(t, mode.UnmarshalText([]byte("sometimes")))

	_, err := EnvironmentMode(42).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "EnvironmentMode(42)", EnvironmentMode(42).String())
}
