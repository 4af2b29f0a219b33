package library

import (
	"fmt"
	"strings"
	"time"
)

const skinColumns = "identity, system, identifier, filename, name, collection_id, added_at"

func addSkin(q querier, s *Skin) error {
	if !s.Identity.Valid() {
		return fmt.Errorf("insert skin %q: %w: %w", s.Identity, ErrConstraint, ErrInvalidIdentity)
	}
	now := time.Now()
	_, err := q.Exec(`
		INSERT INTO skins (identity, system, identifier, filename, name, collection_id, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Identity, s.System, s.Identifier, s.Filename, s.Name, s.CollectionID, now,
	)
	if err != nil {
		return fmt.Errorf("insert skin %s: %w", s.Identity.Short(), mapSQLiteError(err))
	}
	s.AddedAt = now
	return nil
}

// AddSkin inserts a new skin.
// Sets AddedAt on the struct. Returns ErrDuplicate if the identity exists.
func (s *Store) AddSkin(sk *Skin) error { return addSkin(s.db, sk) }

// AddSkin inserts a new skin within a transaction.
func (t *Tx) AddSkin(sk *Skin) error { return addSkin(t.tx, sk) }

func getSkin(q querier, id Identity) (*Skin, error) {
	s := &Skin{}
	err := q.QueryRow(`SELECT `+skinColumns+` FROM skins WHERE identity = ?`, id).
		Scan(&s.Identity, &s.System, &s.Identifier, &s.Filename, &s.Name, &s.CollectionID, &s.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("get skin %s: %w", id.Short(), mapSQLiteError(err))
	}
	return s, nil
}

// GetSkin retrieves a skin by identity.
// Returns ErrNotFound if the skin does not exist.
func (s *Store) GetSkin(id Identity) (*Skin, error) { return getSkin(s.db, id) }

// GetSkin retrieves a skin by identity within a transaction.
func (t *Tx) GetSkin(id Identity) (*Skin, error) { return getSkin(t.tx, id) }

func listSkins(q querier, f SkinFilter) ([]*Skin, int, error) {
	var conditions []string
	var args []any

	if f.System != nil {
		conditions = append(conditions, "system = ?")
		args = append(args, *f.System)
	}
	if f.Identifier != nil {
		conditions = append(conditions, "identifier = ?")
		args = append(args, *f.Identifier)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM skins "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count skins: %w", err)
	}

	query := "SELECT " + skinColumns + " FROM skins " + whereClause + " ORDER BY name, identity" + pageClause(f.Limit, f.Offset)
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list skins: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Skin
	for rows.Next() {
		s := &Skin{}
		if err := rows.Scan(&s.Identity, &s.System, &s.Identifier, &s.Filename, &s.Name, &s.CollectionID, &s.AddedAt); err != nil {
			return nil, 0, fmt.Errorf("scan skin: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate skins: %w", err)
	}

	return results, total, nil
}

// ListSkins returns skins matching the filter with pagination.
func (s *Store) ListSkins(f SkinFilter) ([]*Skin, int, error) { return listSkins(s.db, f) }

func setSkinCollection(q querier, id Identity, collectionID int64) error {
	result, err := q.Exec(`UPDATE skins SET collection_id = ? WHERE identity = ?`, collectionID, id)
	if err != nil {
		return fmt.Errorf("update skin %s: %w", id.Short(), mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update skin %s: %w", id.Short(), ErrNotFound)
	}
	return nil
}

// SetSkinCollection links a skin to its system collection.
func (s *Store) SetSkinCollection(id Identity, collectionID int64) error {
	return setSkinCollection(s.db, id, collectionID)
}

func deleteSkin(q querier, id Identity) error {
	_, err := q.Exec("DELETE FROM skins WHERE identity = ?", id)
	if err != nil {
		return fmt.Errorf("delete skin %s: %w", id.Short(), mapSQLiteError(err))
	}
	return nil
}

// DeleteSkin removes a skin by identity within a transaction. Idempotent.
func (t *Tx) DeleteSkin(id Identity) error { return deleteSkin(t.tx, id) }
