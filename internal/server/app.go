package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/romshelf/internal/artwork"
	"github.com/vmunix/romshelf/internal/config"
	"github.com/vmunix/romshelf/internal/events"
	"github.com/vmunix/romshelf/internal/importer"
	"github.com/vmunix/romshelf/internal/library"
	"github.com/vmunix/romshelf/internal/migrations"
	"github.com/vmunix/romshelf/internal/system"
	_ "modernc.org/sqlite"
)

// App holds the wired components shared by the CLI and the daemon.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Registry *system.Registry
	Library  *library.Store
	History  *importer.HistoryStore
	EventLog *events.EventLog
	Bus      *events.Bus
	Artwork  *artwork.Catalog // nil when artwork lookup is disabled
	Importer *importer.Coordinator
}

// Open opens the database, applies the schema and wires every component.
// Extra importer options are applied after the defaults.
func Open(cfg *config.Config, consumeSources bool, logger *slog.Logger, opts ...importer.Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	registry, err := system.NewRegistry(system.Builtin(), cfg.Systems.Enabled)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("systems: %w", err)
	}

	app := &App{
		Config:   cfg,
		DB:       db,
		Registry: registry,
		Library:  library.NewStore(db),
		History:  importer.NewHistoryStore(db),
		EventLog: events.NewEventLog(db),
	}
	app.Bus = events.NewBus(app.EventLog, logger.With("component", "bus"))

	defaults := []importer.Option{importer.WithBus(app.Bus)}
	if cfg.Artwork.Enabled {
		app.Artwork = artwork.NewCatalog(db, logger)
		defaults = append(defaults, importer.WithArtwork(app.Artwork))
	}

	app.Importer = importer.New(db, registry, importer.Config{
		LibraryRoot:      cfg.Library.Root,
		ScratchRoot:      cfg.Library.Scratch,
		KeepArchives:     cfg.Import.KeepArchives,
		FetchConcurrency: cfg.Import.FetchConcurrency,
		FetchTimeout:     cfg.Import.FetchTimeout,
		ConsumeSources:   consumeSources,
	}, logger, append(defaults, opts...)...)

	return app, nil
}

// dsnParams applies to every pooled connection. Transactions take the write
// lock at BEGIN so concurrent batches queue on busy_timeout instead of
// failing with SQLITE_BUSY when a reader upgrades to a writer.
const dsnParams = "?_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(30000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_txlock=immediate"

// OpenDB opens (creating if needed) the SQLite database at path and applies the schema.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Close waits for in-flight imports, then releases the bus and database.
func (a *App) Close() error {
	a.Importer.Wait()
	_ = a.Bus.Close()
	return a.DB.Close()
}
