package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "mlxcli/internal/errors"
)

func TestReadText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.txt")
	require.NoError(t, os.WriteFile(path, []byte("FUNCTION 2\r\n"), 0644))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "FUNCTION 2\r\n", text)

	_, err = ReadText(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExpandPath(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	got, err := ExpandPath("~/exports")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "exports"), got)

	got, err = ExpandPath("relative")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestResolveOutput(t *testing.T) {
	dir := t.TempDir()

	got, err := ResolveOutput(dir, "combined.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "combined.xlsx"), got)

	abs := filepath.Join(t.TempDir(), "elsewhere.xlsx")
	got, err = ResolveOutput(dir, abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}

func TestLockOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out", "combined.xlsx")

	first, err := LockOutput(output)
	require.NoError(t, err)
	assert.Equal(t, output+".lock", first.Path())

	_, err = LockOutput(output)
	assert.ErrorIs(t, err, apperrors.ErrOutputLocked)

	require.NoError(t, first.Unlock())

	again, err := LockOutput(output)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
