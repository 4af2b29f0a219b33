// Package system describes the emulated systems a library can hold and
// maps payload extensions onto them.
package system

// Extensions shared by every system.
const (
	ArchiveExtension = "zip"
	SkinExtension    = "deltaskin"
)

// System is one emulated platform.
type System struct {
	ID         string
	Name       string
	Extensions []string // lowercase, without dot
	GameType   string   // identifier used by skin manifests
}

// gameTypePrefix namespaces the game type identifiers found in skin manifests.
const gameTypePrefix = "com.rileytestut.delta.game."

// Builtin returns the systems known out of the box.
func Builtin() []System {
	return []System{
		{ID: "gba", Name: "Game Boy Advance", Extensions: []string{"gba"}},
		{ID: "gbc", Name: "Game Boy Color", Extensions: []string{"gbc", "gb"}},
		{ID: "nes", Name: "Nintendo", Extensions: []string{"nes"}},
		{ID: "snes", Name: "Super Nintendo", Extensions: []string{"smc", "sfc"}},
		{ID: "n64", Name: "Nintendo 64", Extensions: []string{"n64", "z64"}},
		{ID: "ds", Name: "Nintendo DS", Extensions: []string{"nds"}},
		{ID: "genesis", Name: "Sega Genesis", Extensions: []string{"md", "gen", "smd"}},
	}
}
