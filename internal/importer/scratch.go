package importer

import (
	"os"
	"path/filepath"
	"strconv"
)

// scratchDir is the per-batch working area for downloads and extraction.
// It is used from the coordinating goroutine only.
type scratchDir struct {
	root string
	n    int
}

func newScratchDir(root string) *scratchDir {
	return &scratchDir{root: root}
}

// next returns a fresh subdirectory path under stage. The directory is not created.
func (s *scratchDir) next(stage string) string {
	s.n++
	return filepath.Join(s.root, stage, strconv.Itoa(s.n))
}

// contains reports whether path lives inside the scratch area.
func (s *scratchDir) contains(path string) bool {
	return ValidatePath(path, s.root) == nil
}

func (s *scratchDir) remove() error {
	return os.RemoveAll(s.root)
}
