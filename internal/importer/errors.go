// internal/importer/errors.go
package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDoesNotExist indicates a reference no longer resolves to a file.
	ErrDoesNotExist = errors.New("file does not exist")

	// ErrInvalid indicates an unreadable archive, an archive without payloads,
	// or a skin package that fails structural validation.
	ErrInvalid = errors.New("invalid file")

	// ErrUnsupported indicates an unrecognized extension or a disabled system.
	ErrUnsupported = errors.New("unsupported file")

	// ErrUnknown indicates an unexpected I/O failure.
	ErrUnknown = errors.New("import failed")

	// ErrSaveFailed indicates the batch commit failed.
	ErrSaveFailed = errors.New("save failed")

	// ErrCopyFailed indicates the file copy operation failed.
	ErrCopyFailed = errors.New("failed to copy file")

	// ErrDestinationExists indicates the destination file already exists.
	ErrDestinationExists = errors.New("destination file already exists")

	// ErrPathTraversal indicates a path traversal attack was detected.
	ErrPathTraversal = errors.New("path traversal detected")
)

// ErrorKind classifies an ImportError.
type ErrorKind int

const (
	DoesNotExist ErrorKind = iota + 1
	Invalid
	Unsupported
	Unknown
	SaveFailed
)

func (k ErrorKind) String() string {
	switch k {
	case DoesNotExist:
		return "does_not_exist"
	case Invalid:
		return "invalid"
	case Unsupported:
		return "unsupported"
	case Unknown:
		return "unknown"
	case SaveFailed:
		return "save_failed"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case DoesNotExist:
		return ErrDoesNotExist
	case Invalid:
		return ErrInvalid
	case Unsupported:
		return ErrUnsupported
	case SaveFailed:
		return ErrSaveFailed
	default:
		return ErrUnknown
	}
}

// ImportError reports why one or more references were not imported.
// It matches its kind's sentinel with errors.Is and unwraps to Cause.
type ImportError struct {
	Kind  ErrorKind
	Refs  []Reference
	Cause error // may be nil
}

func newImportError(kind ErrorKind, cause error, refs ...Reference) *ImportError {
	return &ImportError{Kind: kind, Refs: refs, Cause: cause}
}

func (e *ImportError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind.sentinel(), strings.Join(e.Locations(), ", "))
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error { return e.Cause }

func (e *ImportError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Locations returns the submitted locations of the offending references.
func (e *ImportError) Locations() []string {
	out := make([]string, len(e.Refs))
	for i, r := range e.Refs {
		out[i] = r.Source()
	}
	return out
}
