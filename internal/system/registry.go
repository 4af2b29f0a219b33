package system

import (
	"fmt"
	"sort"
	"strings"
)

// Registry indexes systems by ID, extension, and skin game type.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	systems     map[string]System
	byExtension map[string]string
	byGameType  map[string]string
	enabled     map[string]bool
}

// NewRegistry builds a registry from systems. If enabled is empty every
// system is enabled; otherwise only the listed IDs are.
func NewRegistry(systems []System, enabled []string) (*Registry, error) {
	r := &Registry{
		systems:     make(map[string]System, len(systems)),
		byExtension: make(map[string]string),
		byGameType:  make(map[string]string),
		enabled:     make(map[string]bool),
	}

	for _, s := range systems {
		if s.ID == "" {
			return nil, fmt.Errorf("system with empty id")
		}
		if _, dup := r.systems[s.ID]; dup {
			return nil, fmt.Errorf("duplicate system %q", s.ID)
		}
		if s.GameType == "" {
			s.GameType = gameTypePrefix + s.ID
		}
		r.systems[s.ID] = s
		r.byGameType[s.GameType] = s.ID

		for _, ext := range s.Extensions {
			ext = normalizeExt(ext)
			if ext == ArchiveExtension || ext == SkinExtension {
				return nil, fmt.Errorf("system %q: extension %q is reserved", s.ID, ext)
			}
			if owner, taken := r.byExtension[ext]; taken {
				return nil, fmt.Errorf("extension %q claimed by both %q and %q", ext, owner, s.ID)
			}
			r.byExtension[ext] = s.ID
		}
	}

	if len(enabled) == 0 {
		for id := range r.systems {
			r.enabled[id] = true
		}
		return r, nil
	}
	for _, id := range enabled {
		if _, ok := r.systems[id]; !ok {
			return nil, fmt.Errorf("unknown system %q", id)
		}
		r.enabled[id] = true
	}
	return r, nil
}

// Default returns a registry of the builtin systems, all enabled.
func Default() *Registry {
	r, err := NewRegistry(Builtin(), nil)
	if err != nil {
		panic(err) // builtin table is static
	}
	return r
}

// SystemForExtension returns the system that claims ext.
// The lookup ignores whether the system is enabled.
func (r *Registry) SystemForExtension(ext string) (System, bool) {
	id, ok := r.byExtension[normalizeExt(ext)]
	if !ok {
		return System{}, false
	}
	return r.systems[id], true
}

// SystemForGameType resolves a skin manifest's game type identifier.
func (r *Registry) SystemForGameType(gameType string) (System, bool) {
	id, ok := r.byGameType[gameType]
	if !ok {
		return System{}, false
	}
	return r.systems[id], true
}

// Get returns the system with the given ID.
func (r *Registry) Get(id string) (System, bool) {
	s, ok := r.systems[id]
	return s, ok
}

// Enabled reports whether imports for the system are currently allowed.
func (r *Registry) Enabled(id string) bool {
	return r.enabled[id]
}

// IsPayload reports whether ext belongs to any registered system.
func (r *Registry) IsPayload(ext string) bool {
	_, ok := r.byExtension[normalizeExt(ext)]
	return ok
}

// Systems returns all registered systems sorted by ID.
func (r *Registry) Systems() []System {
	out := make([]System, 0, len(r.systems))
	for _, s := range r.systems {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
