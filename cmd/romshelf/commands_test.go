package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmunix/romshelf/internal/library"
)

// testWorkspace writes the default config with ROMSHELF_DATA pointing at a temp dir.
type testWorkspace struct {
	data   string
	config string
}

func newTestWorkspace(t *testing.T) *testWorkspace {
	t.Helper()
	base := t.TempDir()
	ws := &testWorkspace{
		data:   filepath.Join(base, "data"),
		config: filepath.Join(base, "config.toml"),
	}
	t.Setenv("ROMSHELF_DATA", ws.data)
	t.Setenv("ROMSHELF_LOG_LEVEL", "debug")

	_, err := runCLI(t, "init", ws.config)
	require.NoError(t, err)
	return ws
}

func (ws *testWorkspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", ws.config}, args...)...)
}

func (ws *testWorkspace) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(ws.data, "src", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "romshelf dev\n", out)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	ws := newTestWorkspace(t)

	_, err := runCLI(t, "init", ws.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = runCLI(t, "init", "--force", ws.config)
	require.NoError(t, err)
}

func TestConfigTest(t *testing.T) {
	ws := newTestWorkspace(t)

	out, err := ws.run(t, "config", "test")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid!")
	assert.Contains(t, out, filepath.Join(ws.data, "library"))
}

func TestConfigTest_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nlog_level = \"loud\"\n"), 0644))

	out, err := runCLI(t, "config", "test", path)
	require.Error(t, err)
	assert.Contains(t, out, "server.log_level")
}

func TestImport_GamesAndList(t *testing.T) {
	ws := newTestWorkspace(t)
	mario := ws.writeFile(t, "Super Mario Bros.nes", "NES mario")

	out, err := ws.run(t, "import", mario)
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported (1 new), 0 failed")
	assert.FileExists(t, mario, "local sources are copied, not moved")

	out, err = ws.run(t, "games", "--json")
	require.NoError(t, err)
	var list struct {
		Items []gameOutput `json:"items"`
		Total int          `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "nes", list.Items[0].System)
	assert.Equal(t, "Super Mario Bros", list.Items[0].Name)

	// Second import is a duplicate: still reported as imported, nothing new.
	out, err = ws.run(t, "import", mario)
	require.NoError(t, err)
	assert.Contains(t, out, "1 imported (0 new), 0 failed")
}

func TestImport_PartialFailureSucceeds(t *testing.T) {
	ws := newTestWorkspace(t)
	mario := ws.writeFile(t, "mario.nes", "NES mario")

	out, err := ws.run(t, "import", "--json", mario, filepath.Join(ws.data, "src", "missing.gba"))
	require.NoError(t, err)

	var res importOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "games", res.Kind)
	assert.Len(t, res.Games, 1)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "does_not_exist", res.Errors[0].Kind)
}

func TestImport_AllFailedExitsNonZero(t *testing.T) {
	ws := newTestWorkspace(t)
	readme := ws.writeFile(t, "readme.txt", "hello")

	out, err := ws.run(t, "import", readme)
	require.ErrorIs(t, err, errImportFailed)
	assert.Contains(t, out, "unsupported")
}

func TestHistory(t *testing.T) {
	ws := newTestWorkspace(t)
	mario := ws.writeFile(t, "mario.nes", "NES mario")
	_, err := ws.run(t, "import", mario)
	require.NoError(t, err)

	out, err := ws.run(t, "history", "--json", "--event", "imported")
	require.NoError(t, err)
	var entries []historyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, mario, entries[0].Location)
	assert.NotEmpty(t, entries[0].Identity)
}

func TestArtwork_AddThenImport(t *testing.T) {
	ws := newTestWorkspace(t)

	out, err := ws.run(t, "artwork", "add",
		"--system", "nes",
		"--title", "Super Mario Bros.",
		"--url", "https://img.example/smb.png")
	require.NoError(t, err)
	assert.Contains(t, out, "Added nes: Super Mario Bros.")

	_, err = ws.run(t, "artwork", "add", "--system", "atari", "--title", "Pong", "--url", "x")
	require.Error(t, err)

	rom := ws.writeFile(t, "super_mario_bros_(USA).nes", "NES smb")
	_, err = ws.run(t, "import", rom)
	require.NoError(t, err)

	out, err = ws.run(t, "games", "--json")
	require.NoError(t, err)
	var list listOutput[gameOutput]
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Super Mario Bros.", list.Items[0].Name)
	require.NotNil(t, list.Items[0].ArtworkURL)
	assert.Equal(t, "https://img.example/smb.png", *list.Items[0].ArtworkURL)
}

func TestSkins_Empty(t *testing.T) {
	ws := newTestWorkspace(t)

	out, err := ws.run(t, "skins")
	require.NoError(t, err)
	assert.Equal(t, "No skins.\n", out)
}

func TestGamesRemove(t *testing.T) {
	ws := newTestWorkspace(t)
	mario := ws.writeFile(t, "mario.nes", "NES mario")
	zelda := ws.writeFile(t, "zelda.nes", "NES zelda")
	_, err := ws.run(t, "import", mario, zelda)
	require.NoError(t, err)

	out, err := ws.run(t, "games", "--json")
	require.NoError(t, err)
	var list listOutput[gameOutput]
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Items, 2)
	victim := list.Items[0]
	payload := filepath.Join(ws.data, "library", "games", victim.Filename)
	require.FileExists(t, payload)

	out, err = ws.run(t, "games", "rm", victim.Identity[:8])
	require.NoError(t, err)
	assert.Equal(t, "Removed game "+victim.Identity[:8]+"\n", out)
	assert.NoFileExists(t, payload)

	out, err = ws.run(t, "games", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Items, 1)
	assert.NotEqual(t, victim.Identity, list.Items[0].Identity)

	out, err = ws.run(t, "history", "--json", "--event", "removed")
	require.NoError(t, err)
	var entries []historyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, victim.Identity, entries[0].Identity)

	_, err = ws.run(t, "games", "rm", victim.Identity)
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestSkinsRemove_Unknown(t *testing.T) {
	ws := newTestWorkspace(t)

	_, err := ws.run(t, "skins", "rm", "deadbeef")
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestMatchIdentity(t *testing.T) {
	known := []library.Identity{
		"aa11000000000000000000000000000000000000",
		"aa22000000000000000000000000000000000000",
		"bb33000000000000000000000000000000000000",
	}

	id, err := matchIdentity("BB", known)
	require.NoError(t, err)
	assert.Equal(t, known[2], id)

	id, err = matchIdentity(string(known[0]), known)
	require.NoError(t, err)
	assert.Equal(t, known[0], id)

	_, err = matchIdentity("aa", known)
	assert.ErrorIs(t, err, errAmbiguousIdentity)

	_, err = matchIdentity("cc", known)
	assert.ErrorIs(t, err, library.ErrNotFound)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestAbsLocations(t *testing.T) {
	got := absLocations([]string{"https://example.com/a.nes", "rel/b.nes"})
	assert.Equal(t, "https://example.com/a.nes", got[0])
	assert.True(t, filepath.IsAbs(got[1]))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "now", formatTime(time.Now()))
	assert.Equal(t, "2 hours ago", formatTime(time.Now().Add(-2*time.Hour)))
}
