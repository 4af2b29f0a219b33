package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks github.com/vmunix/romshelf/internal/importer Fetcher

// Fetcher materializes the bytes behind a remote reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref Reference, w io.Writer) error
}

// ExternalResolver downloads remote references into the batch scratch area.
type ExternalResolver struct {
	fetchers    map[string]Fetcher
	concurrency int
	log         *slog.Logger
}

// NewExternalResolver creates a resolver running at most concurrency fetches
// at once. Zero means unbounded.
func NewExternalResolver(concurrency int, log *slog.Logger) *ExternalResolver {
	return &ExternalResolver{
		fetchers:    make(map[string]Fetcher),
		concurrency: concurrency,
		log:         log,
	}
}

// Register installs the fetcher for a URL scheme, replacing any previous one.
func (r *ExternalResolver) Register(scheme string, f Fetcher) {
	r.fetchers[scheme] = f
}

type resolution struct {
	ref Reference
	err *ImportError
}

// Resolve fetches every reference concurrently and waits for all of them.
// Each reference yields either a local reference named after the remote
// basename or an Unknown error.
func (r *ExternalResolver) Resolve(ctx context.Context, refs []Reference, scratch *scratchDir) ([]Reference, []*ImportError) {
	results := make([]resolution, len(refs))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, ref := range refs {
		dir := scratch.next("remote")
		g.Go(func() error {
			results[i] = r.resolve(ctx, ref, dir)
			return nil
		})
	}
	_ = g.Wait()

	var local []Reference
	var errs []*ImportError
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		local = append(local, res.ref)
	}
	return local, errs
}

func (r *ExternalResolver) resolve(ctx context.Context, ref Reference, dir string) resolution {
	f, ok := r.fetchers[ref.scheme()]
	if !ok {
		return resolution{err: newImportError(Unknown, fmt.Errorf("no fetcher for scheme %q", ref.scheme()), ref)}
	}

	name := SanitizeFilename(ref.Name())
	if name == "" {
		name = "download"
		if ref.Ext != "" {
			name += "." + ref.Ext
		}
	}
	dest := filepath.Join(dir, name)

	if err := fetchTo(ctx, f, ref, dest); err != nil {
		r.log.Warn("fetch failed", "location", ref.Location, "error", err)
		return resolution{err: newImportError(Unknown, err, ref)}
	}
	r.log.Debug("fetched", "location", ref.Location, "path", dest)
	return resolution{ref: ref.derive(dest)}
}

func fetchTo(ctx context.Context, f Fetcher, ref Reference, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := f.Fetch(ctx, ref, out); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return err
	}
	return nil
}
