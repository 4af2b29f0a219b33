package importer

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/vmunix/romshelf/internal/library"
)

// Reference is one input item: a local path or a URL.
type Reference struct {
	Location string
	Ext      string // lowercase, no dot

	// Origin is the submitted location a downloaded or extracted file
	// came from. Empty for submitted references.
	Origin string
}

// NewReference builds a reference, deriving the extension from the location.
func NewReference(location string) Reference {
	r := Reference{Location: location}
	r.Ext = strings.ToLower(strings.TrimPrefix(path.Ext(r.Name()), "."))
	return r
}

// scheme returns the lowercase URL scheme, or "" for plain paths.
// Windows drive letters ("C:\") are not schemes.
func (r Reference) scheme() string {
	i := strings.Index(r.Location, "://")
	if i < 2 {
		return ""
	}
	return strings.ToLower(r.Location[:i])
}

// IsRemote reports whether the reference must be materialized before it can be read.
func (r Reference) IsRemote() bool {
	s := r.scheme()
	return s != "" && s != "file"
}

// Path returns the local filesystem path. Only meaningful for local references.
func (r Reference) Path() string {
	if r.scheme() == "file" {
		if u, err := url.Parse(r.Location); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	return r.Location
}

// Name returns the base filename of the reference.
func (r Reference) Name() string {
	if r.scheme() != "" {
		if u, err := url.Parse(r.Location); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(r.Location)
}

// Source returns the location the caller submitted for this reference.
func (r Reference) Source() string {
	if r.Origin != "" {
		return r.Origin
	}
	return r.Location
}

// derive builds a reference for a file materialized from r.
func (r Reference) derive(location string) Reference {
	d := NewReference(location)
	d.Origin = r.Source()
	return d
}

func (r Reference) String() string { return r.Location }

// BatchKind selects the payload family a batch imports.
type BatchKind string

const (
	KindGames BatchKind = "games"
	KindSkins BatchKind = "skins"
)

func (k BatchKind) entityType() library.EntityType {
	if k == KindSkins {
		return library.EntitySkin
	}
	return library.EntityGame
}

// Batch is one submission to the pipeline.
type Batch struct {
	ID   string
	Kind BatchKind
	Refs []Reference
}

// NewBatch creates a batch with a fresh ID.
func NewBatch(kind BatchKind, locations ...string) *Batch {
	refs := make([]Reference, len(locations))
	for i, loc := range locations {
		refs[i] = NewReference(loc)
	}
	return &Batch{ID: uuid.NewString(), Kind: kind, Refs: refs}
}

// Locations returns the batch references as strings.
func (b *Batch) Locations() []string {
	out := make([]string, len(b.Refs))
	for i, r := range b.Refs {
		out[i] = r.Location
	}
	return out
}

func partition(refs []Reference, pred func(Reference) bool) (yes, no []Reference) {
	for _, r := range refs {
		if pred(r) {
			yes = append(yes, r)
		} else {
			no = append(no, r)
		}
	}
	return yes, no
}
