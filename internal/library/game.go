package library

import (
	"fmt"
	"strings"
	"time"
)

const gameColumns = "identity, system, filename, name, artwork_url, collection_id, added_at"

func addGame(q querier, g *Game) error {
	if !g.Identity.Valid() {
		return fmt.Errorf("insert game %q: %w: %w", g.Identity, ErrConstraint, ErrInvalidIdentity)
	}
	now := time.Now()
	_, err := q.Exec(`
		INSERT INTO games (identity, system, filename, name, artwork_url, collection_id, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.Identity, g.System, g.Filename, g.Name, g.ArtworkURL, g.CollectionID, now,
	)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.Identity.Short(), mapSQLiteError(err))
	}
	g.AddedAt = now
	return nil
}

// AddGame inserts a new game.
// Sets AddedAt on the struct. Returns ErrDuplicate if the identity exists.
func (s *Store) AddGame(g *Game) error { return addGame(s.db, g) }

// AddGame inserts a new game within a transaction.
func (t *Tx) AddGame(g *Game) error { return addGame(t.tx, g) }

func getGame(q querier, id Identity) (*Game, error) {
	g := &Game{}
	err := q.QueryRow(`SELECT `+gameColumns+` FROM games WHERE identity = ?`, id).
		Scan(&g.Identity, &g.System, &g.Filename, &g.Name, &g.ArtworkURL, &g.CollectionID, &g.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id.Short(), mapSQLiteError(err))
	}
	return g, nil
}

// GetGame retrieves a game by identity.
// Returns ErrNotFound if the game does not exist.
func (s *Store) GetGame(id Identity) (*Game, error) { return getGame(s.db, id) }

// GetGame retrieves a game by identity within a transaction.
func (t *Tx) GetGame(id Identity) (*Game, error) { return getGame(t.tx, id) }

func listGames(q querier, f GameFilter) ([]*Game, int, error) {
	var conditions []string
	var args []any

	if f.System != nil {
		conditions = append(conditions, "system = ?")
		args = append(args, *f.System)
	}
	if f.CollectionID != nil {
		conditions = append(conditions, "collection_id = ?")
		args = append(args, *f.CollectionID)
	}
	if f.Name != nil {
		conditions = append(conditions, "name = ?")
		args = append(args, *f.Name)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRow("SELECT COUNT(*) FROM games "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count games: %w", err)
	}

	query := "SELECT " + gameColumns + " FROM games " + whereClause + " ORDER BY name, identity" + pageClause(f.Limit, f.Offset)
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list games: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Game
	for rows.Next() {
		g := &Game{}
		if err := rows.Scan(&g.Identity, &g.System, &g.Filename, &g.Name, &g.ArtworkURL, &g.CollectionID, &g.AddedAt); err != nil {
			return nil, 0, fmt.Errorf("scan game: %w", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate games: %w", err)
	}

	return results, total, nil
}

// ListGames returns games matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListGames(f GameFilter) ([]*Game, int, error) { return listGames(s.db, f) }

func setGameCollection(q querier, id Identity, collectionID int64) error {
	result, err := q.Exec(`UPDATE games SET collection_id = ? WHERE identity = ?`, collectionID, id)
	if err != nil {
		return fmt.Errorf("update game %s: %w", id.Short(), mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update game %s: %w", id.Short(), ErrNotFound)
	}
	return nil
}

// SetGameCollection links a game to its system collection.
// Returns ErrNotFound if the game does not exist.
func (s *Store) SetGameCollection(id Identity, collectionID int64) error {
	return setGameCollection(s.db, id, collectionID)
}

func deleteGame(q querier, id Identity) error {
	_, err := q.Exec("DELETE FROM games WHERE identity = ?", id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id.Short(), mapSQLiteError(err))
	}
	return nil
}

// DeleteGame removes a game by identity within a transaction.
// No error is returned if the game does not exist.
func (t *Tx) DeleteGame(id Identity) error { return deleteGame(t.tx, id) }
