package importer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/vmunix/romshelf/internal/library"
)

// HashFile computes the content identity of the file at path.
// The result depends only on the file's bytes.
func HashFile(path string) (library.Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return library.Identity(hex.EncodeToString(h.Sum(nil))), nil
}
