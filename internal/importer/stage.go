package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vmunix/romshelf/internal/artwork"
	"github.com/vmunix/romshelf/internal/library"
	"github.com/vmunix/romshelf/internal/system"
)

// staged is a classified, hashed file waiting for persistence.
type staged struct {
	ref        Reference
	path       string
	owned      bool // lives in the batch scratch area
	system     system.System
	identity   library.Identity
	name       string
	artworkURL *string
	skinID     string // manifest identifier, skins only
}

// classify maps a reference to its system without touching the file.
func (c *Coordinator) classify(kind BatchKind, ref Reference) (system.System, *ImportError) {
	if kind == KindSkins {
		if ref.Ext != system.SkinExtension {
			return system.System{}, newImportError(Unsupported, fmt.Errorf("not a .%s package", system.SkinExtension), ref)
		}
		// The system comes from the manifest.
		return system.System{}, nil
	}

	sys, ok := c.registry.SystemForExtension(ref.Ext)
	if !ok {
		return system.System{}, newImportError(Unsupported, fmt.Errorf("unrecognized extension %q", ref.Ext), ref)
	}
	if !c.registry.Enabled(sys.ID) {
		return system.System{}, newImportError(Unsupported, fmt.Errorf("system %s is disabled", sys.ID), ref)
	}
	return sys, nil
}

// stage classifies, checks and hashes one local non-archive reference.
func (c *Coordinator) stage(kind BatchKind, ref Reference, scratch *scratchDir) (*staged, *ImportError) {
	sys, ierr := c.classify(kind, ref)
	if ierr != nil {
		return nil, ierr
	}

	p := ref.Path()
	info, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, newImportError(DoesNotExist, nil, ref)
	case err != nil:
		return nil, newImportError(Unknown, err, ref)
	case info.IsDir():
		return nil, newImportError(Unsupported, errors.New("is a directory"), ref)
	}

	s := &staged{
		ref:    ref,
		path:   p,
		owned:  scratch.contains(p),
		system: sys,
		name:   artwork.DisplayName(ref.Name()),
	}

	if kind == KindSkins {
		m, err := ReadSkinManifest(p)
		if err != nil {
			return nil, newImportError(Invalid, err, ref)
		}
		sys, ok := c.registry.SystemForGameType(m.GameTypeIdentifier)
		if !ok {
			return nil, newImportError(Invalid, fmt.Errorf("unknown game type %q", m.GameTypeIdentifier), ref)
		}
		if !c.registry.Enabled(sys.ID) {
			return nil, newImportError(Unsupported, fmt.Errorf("system %s is disabled", sys.ID), ref)
		}
		s.system = sys
		s.name = m.Name
		s.skinID = m.Identifier
	}

	s.identity, err = HashFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newImportError(DoesNotExist, nil, ref)
		}
		return nil, newImportError(Unknown, err, ref)
	}

	if kind == KindGames && c.artwork != nil {
		if e, err := c.artwork.Lookup(s.system.ID, string(s.identity), s.name); err == nil {
			s.name = e.Title
			url := e.URL
			s.artworkURL = &url
		} else if !errors.Is(err, artwork.ErrNotFound) {
			c.log.Warn("artwork lookup failed", "identity", s.identity.Short(), "error", err)
		}
	}

	return s, nil
}

// discard removes a staged file the library does not need.
// Files outside the scratch area are only removed when sources are consumed.
func (c *Coordinator) discard(s *staged) {
	if !s.owned && !c.cfg.ConsumeSources {
		return
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.log.Warn("failed to remove staged file", "path", s.path, "error", err)
	}
}
