// internal/importer/sanitize.go
package importer

import (
	"path/filepath"
	"regexp"
	"strings"
)

// maxNameBytes keeps scratch filenames well under common filesystem limits.
const maxNameBytes = 200

// unsafeRuns matches separators, characters reserved on Windows and FAT
// volumes, control bytes and whitespace, so each run collapses to one space.
var unsafeRuns = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\s]+`)

var dotRuns = regexp.MustCompile(`\.{2,}`)

// SanitizeFilename turns an untrusted name (a URL path segment or an archive
// entry) into a single safe path component. The extension is kept when the
// name has to be shortened. Returns "" when nothing usable remains.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	name = unsafeRuns.ReplaceAllString(name, " ")
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.Trim(name, " .")

	if len(name) <= maxNameBytes {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	for len(stem)+len(ext) > maxNameBytes {
		_, stem = lastRune(stem)
	}
	return strings.TrimRight(stem, " .") + ext
}

// lastRune drops the final rune so truncation never splits UTF-8.
func lastRune(s string) (rune, string) {
	r := []rune(s)
	if len(r) == 0 {
		return 0, ""
	}
	return r[len(r)-1], string(r[:len(r)-1])
}

// ValidatePath returns ErrPathTraversal unless path resolves inside root.
func ValidatePath(path, root string) error {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return ErrPathTraversal
	}
	return nil
}
