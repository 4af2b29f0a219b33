package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmunix/romshelf/internal/events"
	"github.com/vmunix/romshelf/internal/library"
)

// Remove deletes a game or skin and its canonical payload file.
// Returns an error wrapping library.ErrNotFound if nothing has the identity.
// The row is deleted first; a payload that cannot be removed afterwards is
// logged and reused by the next import of the same bytes.
func (c *Coordinator) Remove(ctx context.Context, kind BatchKind, id library.Identity) (err error) {
	tx, err := c.store.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	entry, err := c.lookup(tx, kind, id)
	if err != nil {
		return fmt.Errorf("remove %s %s: %w", kind.entityType(), id.Short(), err)
	}

	var filename, sys, name, entity string
	switch kind {
	case KindSkins:
		filename, sys, name, entity = entry.skin.Filename, entry.skin.System, entry.skin.Name, events.EntitySkin
		err = tx.DeleteSkin(id)
	default:
		filename, sys, name, entity = entry.game.Filename, entry.game.System, entry.game.Name, events.EntityGame
		err = tx.DeleteGame(id)
	}
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	dir := c.canonicalDir(kind)
	path := filepath.Join(dir, filename)
	if verr := ValidatePath(path, dir); verr != nil {
		c.log.Warn("refusing to remove payload", "path", path, "error", verr)
	} else if rerr := os.Remove(path); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
		c.log.Warn("failed to remove payload", "path", path, "error", rerr)
	}

	c.log.Info("removed", "kind", kind, "identity", id.Short(), "system", sys)
	c.record(&HistoryEntry{
		Identity: string(id),
		Location: path,
		Event:    EventRemoved,
		Data:     marshalData(map[string]any{"system": sys, "name": name}),
	})
	c.publish(ctx, &events.EntryRemoved{
		BaseEvent: events.NewBaseEvent(events.EventEntryRemoved, entity, string(id)),
		Identity:  string(id),
		System:    sys,
		Name:      name,
	})
	return nil
}
