// Package library manages the content-addressed game and skin library.
package library

import (
	"regexp"
	"time"
)

// Identity is the lowercase hex SHA-1 of a payload's bytes.
// It is the primary key of every library entity.
type Identity string

var identityPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Valid reports whether id has the shape of a content identity.
func (id Identity) Valid() bool {
	return identityPattern.MatchString(string(id))
}

// Short returns the first eight characters, for logs and listings.
func (id Identity) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}

// EntityType distinguishes the two kinds of library entries.
type EntityType string

const (
	EntityGame EntityType = "game"
	EntitySkin EntityType = "skin"
)

// Game is an imported game payload.
type Game struct {
	Identity     Identity
	System       string // system ID, e.g. "gba"
	Filename     string // {identity}.{ext}
	Name         string
	ArtworkURL   *string
	CollectionID *int64
	AddedAt      time.Time
}

// Skin is an imported controller-skin package.
type Skin struct {
	Identity     Identity
	System       string
	Identifier   string // identifier declared by the package manifest
	Filename     string
	Name         string
	CollectionID *int64
	AddedAt      time.Time
}

// Collection groups entities of one type by system.
type Collection struct {
	ID         int64
	EntityType EntityType
	System     string
	CreatedAt  time.Time
}

// CanonicalFilename returns the storage filename for a payload.
func CanonicalFilename(id Identity, ext string) string {
	if ext == "" {
		return string(id)
	}
	return string(id) + "." + ext
}
