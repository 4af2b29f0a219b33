package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmunix/romshelf/internal/library"
)

// LibraryStore is the persistent store used by the pipeline.
type LibraryStore interface {
	Begin() (LibraryTx, error)
	GetGame(id library.Identity) (*library.Game, error)
	GetSkin(id library.Identity) (*library.Skin, error)
	EnsureCollection(entity library.EntityType, system string) (*library.Collection, error)
	SetGameCollection(id library.Identity, collectionID int64) error
	SetSkinCollection(id library.Identity, collectionID int64) error
}

// LibraryTx is the transactional subset of LibraryStore.
type LibraryTx interface {
	GetGame(id library.Identity) (*library.Game, error)
	AddGame(g *library.Game) error
	GetSkin(id library.Identity) (*library.Skin, error)
	AddSkin(s *library.Skin) error
	DeleteGame(id library.Identity) error
	DeleteSkin(id library.Identity) error
	Commit() error
	Rollback() error
}

type libraryStore struct {
	*library.Store
}

// NewLibraryStore adapts a library.Store to LibraryStore.
func NewLibraryStore(s *library.Store) LibraryStore {
	return libraryStore{s}
}

func (s libraryStore) Begin() (LibraryTx, error) {
	tx, err := s.Store.Begin()
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// persisted is one entity the batch reports as imported.
type persisted struct {
	staged  *staged
	game    *library.Game
	skin    *library.Skin
	created bool
	refetch bool // lost an insert race; read the winner after commit
}

// placement records a file written into the canonical directory, so a
// failed commit can undo it.
type placement struct {
	src, dest string
	moved     bool
}

func (p placement) undo() error {
	if p.moved {
		return MoveFile(p.dest, p.src)
	}
	return os.Remove(p.dest)
}

// canonicalDir returns the directory holding payloads of the batch kind.
func (c *Coordinator) canonicalDir(kind BatchKind) string {
	return filepath.Join(c.cfg.LibraryRoot, string(kind))
}

// persist applies staged files inside one transaction. On commit failure it
// returns no entities and a single SaveFailed covering the references that
// reached the transaction. Per-item errors are returned either way.
func (c *Coordinator) persist(kind BatchKind, items []*staged) ([]*persisted, []*ImportError) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := c.store.Begin()
	if err != nil {
		return nil, []*ImportError{newImportError(SaveFailed, err, stagedRefs(items)...)}
	}

	var out []*persisted
	var errs []*ImportError
	var placed []placement

	dir := c.canonicalDir(kind)
	for _, s := range items {
		p, place, ierr := c.persistOne(tx, kind, dir, s)
		if place != nil {
			placed = append(placed, *place)
		}
		if ierr != nil {
			errs = append(errs, ierr)
			continue
		}
		out = append(out, p)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		c.log.Error("commit failed", "entries", len(items), "error", err)
		for _, p := range placed {
			if uerr := p.undo(); uerr != nil {
				c.log.Warn("failed to undo placement", "path", p.dest, "error", uerr)
			}
		}
		if len(out) > 0 {
			refs := make([]Reference, len(out))
			for i, p := range out {
				refs[i] = p.staged.ref
			}
			errs = append(errs, newImportError(SaveFailed, err, refs...))
		}
		return nil, errs
	}

	for _, p := range out {
		if !p.refetch {
			continue
		}
		if err := c.refetch(kind, p); err != nil {
			c.log.Warn("failed to read existing entry", "identity", p.staged.identity.Short(), "error", err)
		}
	}
	return out, errs
}

func stagedRefs(items []*staged) []Reference {
	refs := make([]Reference, len(items))
	for i, s := range items {
		refs[i] = s.ref
	}
	return refs
}

// persistOne handles one staged file inside the batch transaction.
func (c *Coordinator) persistOne(tx LibraryTx, kind BatchKind, dir string, s *staged) (*persisted, *placement, *ImportError) {
	existing, err := c.lookup(tx, kind, s.identity)
	if err == nil {
		c.discard(s)
		c.log.Debug("duplicate", "identity", s.identity.Short(), "location", s.ref.Source())
		existing.staged = s
		return existing, nil, nil
	}
	if !errors.Is(err, library.ErrNotFound) {
		return nil, nil, newImportError(Unknown, err, s.ref)
	}

	filename := library.CanonicalFilename(s.identity, s.ref.Ext)
	dest := filepath.Join(dir, filename)
	if err := ValidatePath(dest, dir); err != nil {
		return nil, nil, newImportError(Unknown, err, s.ref)
	}

	var place *placement
	if _, err := os.Stat(dest); err == nil {
		// Payload survived an earlier failed insert; keep it and add the row.
		c.discard(s)
	} else {
		place, err = c.place(s, dest)
		switch {
		case errors.Is(err, ErrDestinationExists):
			// A concurrent batch placed the same bytes first.
			c.discard(s)
		case err != nil:
			return nil, nil, newImportError(Unknown, err, s.ref)
		}
	}

	p := &persisted{staged: s, created: true}
	switch kind {
	case KindSkins:
		p.skin = &library.Skin{
			Identity:   s.identity,
			System:     s.system.ID,
			Identifier: s.skinID,
			Filename:   filename,
			Name:       s.name,
		}
		err = tx.AddSkin(p.skin)
	default:
		p.game = &library.Game{
			Identity:   s.identity,
			System:     s.system.ID,
			Filename:   filename,
			Name:       s.name,
			ArtworkURL: s.artworkURL,
		}
		err = tx.AddGame(p.game)
	}

	if errors.Is(err, library.ErrDuplicate) {
		// Another batch claimed this identity first.
		p.created = false
		p.refetch = true
		return p, nil, nil
	}
	if err != nil {
		if place != nil {
			_ = place.undo()
		}
		return nil, nil, newImportError(Unknown, err, s.ref)
	}
	return p, place, nil
}

// place writes the staged file to dest. Scratch files and consumed sources
// are moved; anything else is copied so the caller's file stays put.
func (c *Coordinator) place(s *staged, dest string) (*placement, error) {
	if s.owned || c.cfg.ConsumeSources {
		if err := MoveFile(s.path, dest); err != nil {
			return nil, fmt.Errorf("move to library: %w", err)
		}
		return &placement{src: s.path, dest: dest, moved: true}, nil
	}
	if _, err := CopyFile(s.path, dest); err != nil {
		return nil, fmt.Errorf("copy to library: %w", err)
	}
	return &placement{src: s.path, dest: dest}, nil
}

func (c *Coordinator) lookup(tx LibraryTx, kind BatchKind, id library.Identity) (*persisted, error) {
	if kind == KindSkins {
		sk, err := tx.GetSkin(id)
		if err != nil {
			return nil, err
		}
		return &persisted{skin: sk}, nil
	}
	g, err := tx.GetGame(id)
	if err != nil {
		return nil, err
	}
	return &persisted{game: g}, nil
}

func (c *Coordinator) refetch(kind BatchKind, p *persisted) error {
	if kind == KindSkins {
		sk, err := c.store.GetSkin(p.staged.identity)
		if err != nil {
			return err
		}
		p.skin = sk
		return nil
	}
	g, err := c.store.GetGame(p.staged.identity)
	if err != nil {
		return err
	}
	p.game = g
	return nil
}

// linkCollections creates or reuses per-system collections for the batch
// and links newly created entities to them. Failures are logged only.
func (c *Coordinator) linkCollections(kind BatchKind, items []*persisted) {
	collections := make(map[string]int64)
	for _, p := range items {
		sys := p.staged.system.ID
		id, ok := collections[sys]
		if !ok {
			coll, err := c.store.EnsureCollection(kind.entityType(), sys)
			if err != nil {
				c.log.Warn("failed to ensure collection", "system", sys, "error", err)
				continue
			}
			id = coll.ID
			collections[sys] = id
		}
		if !p.created {
			continue
		}

		var err error
		if kind == KindSkins {
			err = c.store.SetSkinCollection(p.staged.identity, id)
			if err == nil {
				p.skin.CollectionID = &id
			}
		} else {
			err = c.store.SetGameCollection(p.staged.identity, id)
			if err == nil {
				p.game.CollectionID = &id
			}
		}
		if err != nil {
			c.log.Warn("failed to link collection", "identity", p.staged.identity.Short(), "error", err)
		}
	}
}
