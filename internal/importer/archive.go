package importer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vmunix/romshelf/internal/system"
)

// ArchiveExtractor flattens zip containers into payload files.
type ArchiveExtractor struct {
	registry *system.Registry
	log      *slog.Logger
}

// NewArchiveExtractor creates an extractor that recognizes the registry's payloads.
func NewArchiveExtractor(registry *system.Registry, log *slog.Logger) *ArchiveExtractor {
	return &ArchiveExtractor{registry: registry, log: log}
}

// IsArchive reports whether the reference is a container to be extracted.
func IsArchive(ref Reference) bool {
	return ref.Ext == system.ArchiveExtension
}

// extraction is the outcome of one ExtractArchives pass.
type extraction struct {
	refs     []Reference
	errs     []*ImportError
	archives []Reference // sources that yielded at least one payload
}

// accepts reports whether an entry extension is a payload for the batch kind.
func (x *ArchiveExtractor) accepts(kind BatchKind, ext string) bool {
	if kind == KindSkins {
		return ext == system.SkinExtension
	}
	return x.registry.IsPayload(ext)
}

// Extract extracts every recognized top-level entry of each archive into
// its own scratch subdirectory, keeping the entry's original filename.
// Entries in subdirectories are skipped. An archive that cannot be opened or
// that holds no recognized entry is reported Invalid.
func (x *ArchiveExtractor) Extract(archives []Reference, kind BatchKind, scratch *scratchDir) extraction {
	var out extraction
	for _, ref := range archives {
		refs, err := x.extractOne(ref, kind, scratch.next("archives"))
		out.refs = append(out.refs, refs...)
		if err != nil {
			out.errs = append(out.errs, err)
		}
		if len(refs) > 0 {
			out.archives = append(out.archives, ref)
		}
	}
	return out
}

func (x *ArchiveExtractor) extractOne(ref Reference, kind BatchKind, dir string) ([]Reference, *ImportError) {
	src := ref.Path()
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newImportError(DoesNotExist, nil, ref)
		}
		return nil, newImportError(Unknown, err, ref)
	}

	zr, err := zip.OpenReader(src)
	if err != nil {
		return nil, newImportError(Invalid, err, ref)
	}
	defer func() { _ = zr.Close() }()

	var refs []Reference
	var failure *ImportError
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.ContainsAny(f.Name, `/\`) {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
		if !x.accepts(kind, ext) {
			continue
		}

		dest := filepath.Join(dir, f.Name)
		if err := ValidatePath(dest, dir); err != nil || dest == filepath.Clean(dir) {
			x.log.Warn("skipping archive entry", "archive", src, "entry", f.Name)
			continue
		}
		if err := extractEntry(f, dest); err != nil {
			x.log.Warn("extract failed", "archive", src, "entry", f.Name, "error", err)
			failure = newImportError(Unknown, fmt.Errorf("extract %s: %w", f.Name, err), ref)
			continue
		}
		refs = append(refs, ref.derive(dest))
	}

	x.log.Debug("archive extracted", "archive", src, "payloads", len(refs))
	if len(refs) == 0 && failure == nil {
		return nil, newImportError(Invalid, errors.New("no recognized payload"), ref)
	}
	return refs, failure
}

func extractEntry(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
