package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/system"
)

func newTestExtractor(t *testing.T) (*ArchiveExtractor, *scratchDir) {
	t.Helper()
	return NewArchiveExtractor(system.Default(), testLogger()), newScratchDir(filepath.Join(t.TempDir(), "scratch"))
}

func TestArchiveExtractor_Flattening(t *testing.T) {
	x, scratch := newTestExtractor(t)
	archive := writeZip(t, filepath.Join(t.TempDir(), "bundle.zip"),
		zipEntry{name: "zelda.nes", content: "zelda"},
		zipEntry{name: "extras/", content: ""},
		zipEntry{name: "extras/metroid.nes", content: "metroid"},
		zipEntry{name: "readme.txt", content: "hello"},
	)

	out := x.Extract([]Reference{NewReference(archive)}, KindGames, scratch)

	assert.Empty(t, out.errs)
	require.Len(t, out.refs, 1, "only the top-level payload is extracted")
	assert.Equal(t, "zelda.nes", out.refs[0].Name())
	assert.Equal(t, "nes", out.refs[0].Ext)
	assert.True(t, scratch.contains(out.refs[0].Path()))
	assert.Equal(t, archive, out.refs[0].Source(), "extracted entries remember their archive")

	got, err := os.ReadFile(out.refs[0].Path())
	require.NoError(t, err)
	assert.Equal(t, "zelda", string(got))

	require.Len(t, out.archives, 1)
	_, err = os.Stat(archive)
	assert.NoError(t, err, "extraction does not delete the source")
}

func TestArchiveExtractor_NoPayload(t *testing.T) {
	x, scratch := newTestExtractor(t)
	archive := writeZip(t, filepath.Join(t.TempDir(), "docs.zip"),
		zipEntry{name: "readme.txt", content: "hello"},
		zipEntry{name: "sub/mario.gba", content: "nested"},
	)

	out := x.Extract([]Reference{NewReference(archive)}, KindGames, scratch)

	assert.Empty(t, out.refs)
	assert.Empty(t, out.archives)
	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], ErrInvalid)
	assert.Equal(t, archive, out.errs[0].Refs[0].Location)
}

func TestArchiveExtractor_Corrupt(t *testing.T) {
	x, scratch := newTestExtractor(t)
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

	out := x.Extract([]Reference{NewReference(path)}, KindGames, scratch)

	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], ErrInvalid)
}

func TestArchiveExtractor_Missing(t *testing.T) {
	x, scratch := newTestExtractor(t)

	out := x.Extract([]Reference{NewReference(filepath.Join(t.TempDir(), "gone.zip"))}, KindGames, scratch)

	require.Len(t, out.errs, 1)
	assert.ErrorIs(t, out.errs[0], ErrDoesNotExist)
}

func TestArchiveExtractor_SkinKind(t *testing.T) {
	x, scratch := newTestExtractor(t)
	archive := writeZip(t, filepath.Join(t.TempDir(), "skins.zip"),
		zipEntry{name: "clear.deltaskin", content: "skin"},
		zipEntry{name: "mario.gba", content: "game"},
	)

	out := x.Extract([]Reference{NewReference(archive)}, KindSkins, scratch)

	assert.Empty(t, out.errs)
	require.Len(t, out.refs, 1)
	assert.Equal(t, "clear.deltaskin", out.refs[0].Name())
}

func TestArchiveExtractor_SeparateDirectories(t *testing.T) {
	x, scratch := newTestExtractor(t)
	dir := t.TempDir()
	a := writeZip(t, filepath.Join(dir, "a.zip"), zipEntry{name: "game.gba", content: "a"})
	b := writeZip(t, filepath.Join(dir, "b.zip"), zipEntry{name: "game.gba", content: "b"})

	out := x.Extract([]Reference{NewReference(a), NewReference(b)}, KindGames, scratch)

	assert.Empty(t, out.errs)
	require.Len(t, out.refs, 2)
	assert.NotEqual(t, out.refs[0].Path(), out.refs[1].Path(), "same entry name in two archives must not collide")
}
