package library

import (
	"fmt"
)

func ensureCollection(q querier, entity EntityType, system string) (*Collection, error) {
	if _, err := q.Exec(`
		INSERT INTO collections (entity_type, system) VALUES (?, ?)
		ON CONFLICT (entity_type, system) DO NOTHING`,
		entity, system,
	); err != nil {
		return nil, fmt.Errorf("insert collection %s/%s: %w", entity, system, mapSQLiteError(err))
	}
	return getCollection(q, entity, system)
}

// EnsureCollection returns the collection for (entity, system), creating it if needed.
func (s *Store) EnsureCollection(entity EntityType, system string) (*Collection, error) {
	return ensureCollection(s.db, entity, system)
}

func getCollection(q querier, entity EntityType, system string) (*Collection, error) {
	c := &Collection{}
	err := q.QueryRow(`
		SELECT id, entity_type, system, created_at
		FROM collections WHERE entity_type = ? AND system = ?`, entity, system,
	).Scan(&c.ID, &c.EntityType, &c.System, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get collection %s/%s: %w", entity, system, mapSQLiteError(err))
	}
	return c, nil
}

// GetCollection retrieves the collection for (entity, system).
// Returns ErrNotFound if no entity of that system was ever imported.
func (s *Store) GetCollection(entity EntityType, system string) (*Collection, error) {
	return getCollection(s.db, entity, system)
}

// ListCollections returns every collection of the given entity type.
func (s *Store) ListCollections(entity EntityType) ([]*Collection, error) {
	rows, err := s.db.Query(`
		SELECT id, entity_type, system, created_at
		FROM collections WHERE entity_type = ? ORDER BY system`, entity)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Collection
	for rows.Next() {
		c := &Collection{}
		if err := rows.Scan(&c.ID, &c.EntityType, &c.System, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return results, nil
}
