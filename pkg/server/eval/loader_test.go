package eval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pnwamk/cryptol/pkg/value"
)

func writeModule(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Mod.cry")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadModule(t *testing.T) {
	path := writeModule(t, `module Mod where

import Id

// the answer, padded
x : [16]
x = 0xf00d

y = 0xff
`)

	env, err := LoadModule(path, Prelude())
	require.NoError(t, err)

	x, ok := env.LookupVal("x")
	require.True(t, ok)
	want, err := value.NewWord(16, 0xf00d)
	require.NoError(t, err)
	assert.True(t, value.Equal(x, want))

	y, ok := env.LookupVal("y")
	require.True(t, ok)
	assert.Equal(t, 8, y.(value.Word).Width())

	// builtins still visible through the module env
	_, ok = env.LookupFun("add")
	assert.True(t, ok)
}

func TestLoadModuleSignatureMismatch(t *testing.T) {
	path := writeModule(t, `module Mod where
x : [4]
x = 0xff
`)

	_, err := LoadModule(path, Prelude())
	assert.ErrorIs(t, err, ErrWidth)
}

func TestLoadModuleBadDecl(t *testing.T) {
	path := writeModule(t, `module Mod where
x ~ 0xff
`)

	_, err := LoadModule(path, Prelude())
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoadModuleBadHeader(t *testing.T) {
	path := writeModule(t, "module Mod\n")

	_, err := LoadModule(path, Prelude())
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoadModuleMissingFile(t *testing.T) {
	_, err := LoadModule(filepath.Join(t.TempDir(), "Nope.cry"), Prelude())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadModuleDoesNotMutateBase(t *testing.T) {
	path := writeModule(t, `module Mod where
x = 0x01
`)

	base := Prelude()
	_, err := LoadModule(path, base)
	require.NoError(t, err)

	_, ok := base.LookupVal("x")
	assert.False(t, ok)
}
