// Package importer turns file references into content-addressed library entries.
package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmunix/romshelf/internal/artwork"
	"github.com/vmunix/romshelf/internal/events"
	"github.com/vmunix/romshelf/internal/library"
	"github.com/vmunix/romshelf/internal/system"
)

// Config for the coordinator.
type Config struct {
	LibraryRoot      string
	ScratchRoot      string
	KeepArchives     bool          // leave source archives in place after extraction
	FetchConcurrency int           // 0 = unbounded
	FetchTimeout     time.Duration // per remote reference
	ConsumeSources   bool          // move local sources into the library instead of copying
}

// Publisher receives pipeline events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// ArtworkLookup resolves display metadata for a game. *artwork.Catalog satisfies it.
type ArtworkLookup interface {
	Lookup(system, identity, name string) (*artwork.Entry, error)
}

// Dispatcher runs a completion callback on the caller's chosen execution context.
type Dispatcher func(func())

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStore replaces the library store built from the database.
func WithStore(s LibraryStore) Option { return func(c *Coordinator) { c.store = s } }

// WithBus publishes pipeline events to p.
func WithBus(p Publisher) Option { return func(c *Coordinator) { c.bus = p } }

// WithArtwork enables artwork lookup for games.
func WithArtwork(a ArtworkLookup) Option { return func(c *Coordinator) { c.artwork = a } }

// WithDispatcher sets where Submit delivers completions.
func WithDispatcher(d Dispatcher) Option { return func(c *Coordinator) { c.dispatch = d } }

// WithFetcher registers a fetcher for a URL scheme.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(c *Coordinator) { c.resolver.Register(scheme, f) }
}

// Coordinator drives batches through the import pipeline.
type Coordinator struct {
	registry  *system.Registry
	store     LibraryStore
	history   *HistoryStore
	bus       Publisher
	artwork   ArtworkLookup
	resolver  *ExternalResolver
	extractor *ArchiveExtractor
	dispatch  Dispatcher
	cfg       Config
	log       *slog.Logger

	wg sync.WaitGroup
}

// New creates a coordinator backed by db.
func New(db *sql.DB, registry *system.Registry, cfg Config, log *slog.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "importer")
	if cfg.ScratchRoot == "" {
		cfg.ScratchRoot = filepath.Join(cfg.LibraryRoot, ".scratch")
	}

	c := &Coordinator{
		registry:  registry,
		store:     NewLibraryStore(library.NewStore(db)),
		history:   NewHistoryStore(db),
		resolver:  NewExternalResolver(cfg.FetchConcurrency, log),
		extractor: NewArchiveExtractor(registry, log),
		dispatch:  func(f func()) { f() },
		cfg:       cfg,
		log:       log,
	}
	httpFetcher := NewHTTPFetcher(cfg.FetchTimeout)
	c.resolver.Register("http", httpFetcher)
	c.resolver.Register("https", httpFetcher)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of one batch.
type Result struct {
	BatchID string
	Kind    BatchKind
	Games   []*library.Game
	Skins   []*library.Skin
	Created []library.Identity // entities new to the library
	Errors  []*ImportError
}

// Imported returns the number of entities the batch reports as imported,
// including duplicates of existing entries.
func (r *Result) Imported() int {
	return len(r.Games) + len(r.Skins)
}

// Failed reports whether nothing was imported and at least one reference failed.
func (r *Result) Failed() bool {
	return r.Imported() == 0 && len(r.Errors) > 0
}

// ErrorsOf returns the errors of one kind.
func (r *Result) ErrorsOf(kind ErrorKind) []*ImportError {
	var out []*ImportError
	for _, e := range r.Errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Submit runs the batch on a background goroutine and hands the result to
// done through the coordinator's dispatcher. It never blocks.
func (c *Coordinator) Submit(ctx context.Context, batch *Batch, done func(*Result)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res := c.Import(ctx, batch)
		if done != nil {
			c.dispatch(func() { done(res) })
		}
	}()
}

// Wait blocks until every submitted batch has completed.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Import runs the batch to completion on the calling goroutine.
//
// Stages run in fixed order: remote references are fetched, archives are
// extracted, and the loop repeats until only local payload files remain.
// Those are classified and hashed, then committed in one transaction.
// If ctx is canceled before the commit, staged work is discarded and
// nothing is written to the library.
func (c *Coordinator) Import(ctx context.Context, batch *Batch) *Result {
	res := &Result{BatchID: batch.ID, Kind: batch.Kind}
	if len(batch.Refs) == 0 {
		return res
	}

	start := time.Now()
	log := c.log.With("batch_id", batch.ID, "kind", batch.Kind)
	log.Info("import started", "references", len(batch.Refs))
	c.publish(ctx, &events.BatchStarted{
		BaseEvent:  events.NewBaseEvent(events.EventBatchStarted, events.EntityBatch, batch.ID),
		BatchID:    batch.ID,
		Kind:       string(batch.Kind),
		References: batch.Locations(),
	})

	scratch := newScratchDir(filepath.Join(c.cfg.ScratchRoot, batch.ID))
	defer func() {
		if err := scratch.remove(); err != nil {
			log.Warn("failed to remove scratch", "path", scratch.root, "error", err)
		}
	}()

	var items []*staged
	var archives []Reference
	pending := batch.Refs
	for len(pending) > 0 {
		remote, local := partition(pending, Reference.IsRemote)
		if len(remote) > 0 {
			resolved, errs := c.resolver.Resolve(ctx, remote, scratch)
			res.Errors = append(res.Errors, errs...)
			pending = append(local, resolved...)
			continue
		}

		containers, files := partition(local, IsArchive)
		if len(containers) > 0 {
			x := c.extractor.Extract(containers, batch.Kind, scratch)
			res.Errors = append(res.Errors, x.errs...)
			for _, a := range x.archives {
				if !scratch.contains(a.Path()) {
					archives = append(archives, a)
				}
			}
			pending = append(files, x.refs...)
			continue
		}

		for _, ref := range files {
			s, ierr := c.stage(batch.Kind, ref, scratch)
			if ierr != nil {
				log.Debug("reference rejected", "location", ref.Source(), "kind", ierr.Kind, "error", ierr.Cause)
				res.Errors = append(res.Errors, ierr)
				continue
			}
			items = append(items, s)
		}
		pending = nil
	}

	if err := ctx.Err(); err != nil {
		if len(items) > 0 {
			res.Errors = append(res.Errors, newImportError(Unknown, err, stagedRefs(items)...))
		}
		log.Warn("import canceled before commit", "discarded", len(items))
		c.finish(ctx, batch, res, nil, start)
		return res
	}

	persisted, errs := c.persist(batch.Kind, items)
	res.Errors = append(res.Errors, errs...)
	if len(persisted) > 0 {
		c.linkCollections(batch.Kind, persisted)
	}
	c.removeArchives(archives, persisted)

	for _, p := range persisted {
		if p.game != nil {
			res.Games = append(res.Games, p.game)
		}
		if p.skin != nil {
			res.Skins = append(res.Skins, p.skin)
		}
		if p.created {
			res.Created = append(res.Created, p.staged.identity)
		}
	}

	c.finish(ctx, batch, res, persisted, start)
	return res
}

// removeArchives deletes each extracted source archive once at least one of
// its own entries is in the library, unless configured to keep them.
func (c *Coordinator) removeArchives(archives []Reference, items []*persisted) {
	if c.cfg.KeepArchives || len(archives) == 0 {
		return
	}
	landed := make(map[string]bool, len(items))
	for _, p := range items {
		if p.staged.ref.Origin != "" {
			landed[p.staged.ref.Origin] = true
		}
	}
	for _, a := range archives {
		if !landed[a.Source()] {
			c.log.Debug("keeping archive", "path", a.Path(), "reason", "no entry imported")
			continue
		}
		if err := removeFile(a.Path()); err != nil {
			c.log.Warn("failed to remove archive", "path", a.Path(), "error", err)
		}
	}
}

// finish records history and publishes completion events.
func (c *Coordinator) finish(ctx context.Context, batch *Batch, res *Result, items []*persisted, start time.Time) {
	duration := time.Since(start)

	imported := make([]events.ImportedEntity, 0, len(items))
	for _, p := range items {
		e := events.ImportedEntity{
			Identity: string(p.staged.identity),
			System:   p.staged.system.ID,
			Name:     p.staged.name,
			Created:  p.created,
		}
		if p.game != nil {
			e.Name = p.game.Name
		}
		if p.skin != nil {
			e.Name = p.skin.Name
		}
		imported = append(imported, e)

		event := EventImported
		if !p.created {
			event = EventDuplicate
		}
		c.record(&HistoryEntry{
			BatchID:  batch.ID,
			Identity: e.Identity,
			Location: p.staged.ref.Source(),
			Event:    event,
			Data:     marshalData(map[string]any{"system": e.System, "name": e.Name}),
		})
	}

	failures := make([]events.ImportFailure, 0, len(res.Errors))
	for _, ierr := range res.Errors {
		f := events.ImportFailure{Kind: ierr.Kind.String(), References: ierr.Locations()}
		if ierr.Cause != nil {
			f.Reason = ierr.Cause.Error()
		}
		failures = append(failures, f)
		for _, ref := range ierr.Refs {
			c.record(&HistoryEntry{
				BatchID:  batch.ID,
				Location: ref.Source(),
				Event:    EventFailed,
				Data:     marshalData(f),
			})
		}
	}

	if len(imported) > 0 {
		switch batch.Kind {
		case KindSkins:
			c.publish(ctx, &events.SkinsImported{
				BaseEvent: events.NewBaseEvent(events.EventSkinsImported, events.EntityBatch, batch.ID),
				BatchID:   batch.ID,
				Skins:     imported,
			})
		default:
			c.publish(ctx, &events.GamesImported{
				BaseEvent: events.NewBaseEvent(events.EventGamesImported, events.EntityBatch, batch.ID),
				BatchID:   batch.ID,
				Games:     imported,
			})
		}
	}

	completed := &events.BatchCompleted{
		BaseEvent:  events.NewBaseEvent(events.EventBatchCompleted, events.EntityBatch, batch.ID),
		BatchID:    batch.ID,
		Kind:       string(batch.Kind),
		Imported:   make([]string, 0, len(imported)),
		Created:    make([]string, 0, len(res.Created)),
		Failures:   failures,
		DurationMS: duration.Milliseconds(),
	}
	for _, e := range imported {
		completed.Imported = append(completed.Imported, e.Identity)
	}
	for _, id := range res.Created {
		completed.Created = append(completed.Created, string(id))
	}
	c.publish(ctx, completed)

	c.log.Info("import complete",
		"batch_id", batch.ID,
		"imported", res.Imported(),
		"created", len(res.Created),
		"errors", len(res.Errors),
		"duration", duration)
}

func (c *Coordinator) publish(ctx context.Context, e events.Event) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		c.log.Warn("failed to publish event", "type", e.EventType(), "error", err)
	}
}

func (c *Coordinator) record(h *HistoryEntry) {
	if c.history == nil {
		return
	}
	if err := c.history.Add(h); err != nil {
		c.log.Warn("failed to record history", "location", h.Location, "event", h.Event, "error", err)
	}
}

func marshalData(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
