package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.gba")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	id, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", string(id))
	assert.True(t, id.Valid())
}

func TestHashFile_DependsOnlyOnContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "mario.gba")
	b := filepath.Join(dir, "nested", "Mario Copy.GBA")
	c := filepath.Join(dir, "mario.nes")
	require.NoError(t, os.MkdirAll(filepath.Dir(b), 0755))
	for _, p := range []string{a, b, c} {
		require.NoError(t, os.WriteFile(p, []byte("same bytes"), 0644))
	}
	other := filepath.Join(dir, "other.gba")
	require.NoError(t, os.WriteFile(other, []byte("same bytes!"), 0644))

	idA, err := HashFile(a)
	require.NoError(t, err)
	idB, err := HashFile(b)
	require.NoError(t, err)
	idC, err := HashFile(c)
	require.NoError(t, err)
	idOther, err := HashFile(other)
	require.NoError(t, err)

	assert.Equal(t, idA, idB, "filename and path must not affect identity")
	assert.Equal(t, idA, idC, "extension must not affect identity")
	assert.NotEqual(t, idA, idOther)
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "missing.gba"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
