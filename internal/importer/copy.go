// internal/importer/copy.go
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// CopyFile copies a file from src to dst.
// Creates destination directory if it doesn't exist.
// Returns ErrDestinationExists if dst already exists.
func CopyFile(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("%w: create directory: %v", ErrCopyFailed, err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("%w: open source: %v", ErrCopyFailed, err)
	}
	defer func() { _ = srcFile.Close() }()

	// O_EXCL so two batches racing for one identity cannot clobber each other.
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, ErrDestinationExists
		}
		return 0, fmt.Errorf("%w: create destination: %v", ErrCopyFailed, err)
	}
	defer func() { _ = dstFile.Close() }()

	size, err := io.Copy(dstFile, srcFile)
	if err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("%w: copy content: %v", ErrCopyFailed, err)
	}

	if err := dstFile.Sync(); err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("%w: sync: %v", ErrCopyFailed, err)
	}

	return size, nil
}

// MoveFile renames src to dst, falling back to copy and remove when the two
// paths are on different filesystems.
// Returns ErrDestinationExists if dst already exists.
func MoveFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return ErrDestinationExists
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrCopyFailed, err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return fmt.Errorf("%w: rename: %v", ErrCopyFailed, err)
	}

	if _, err := CopyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("%w: remove source: %v", ErrCopyFailed, err)
	}
	return nil
}

func removeFile(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
