// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Library  LibraryConfig  `toml:"library"`
	Import   ImportConfig   `toml:"import"`
	Inbox    InboxConfig    `toml:"inbox"`
	Systems  SystemsConfig  `toml:"systems"`
	Artwork  ArtworkConfig  `toml:"artwork"`
	Events   EventsConfig   `toml:"events"`
}

type ServerConfig struct {
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LibraryConfig locates the canonical payload directory and the scratch
// area used while a batch is in flight.
type LibraryConfig struct {
	Root    string `toml:"root"`
	Scratch string `toml:"scratch"`
}

type ImportConfig struct {
	KeepArchives     bool          `toml:"keep_archives"`
	FetchConcurrency int           `toml:"fetch_concurrency"`
	FetchTimeout     time.Duration `toml:"fetch_timeout"`
}

type InboxConfig struct {
	Enabled bool          `toml:"enabled"`
	Path    string        `toml:"path"`
	Settle  time.Duration `toml:"settle"`
}

type SystemsConfig struct {
	Enabled []string `toml:"enabled"` // empty = all builtin systems
}

type ArtworkConfig struct {
	Enabled bool `toml:"enabled"`
}

// EventsConfig controls pruning of the persisted event log. A zero
// retention keeps events forever.
type EventsConfig struct {
	Retention     time.Duration `toml:"retention"`
	PruneSchedule string        `toml:"prune_schedule"` // five-field cron expression
}

// Defaults applied by Load for unset values.
const (
	DefaultLogLevel         = "info"
	DefaultDatabasePath     = "./data/romshelf.db"
	DefaultLibraryRoot      = "./data/library"
	DefaultFetchConcurrency = 4
	DefaultFetchTimeout     = 2 * time.Minute
	DefaultInboxSettle      = 2 * time.Second
	DefaultPruneSchedule    = "0 4 * * *"
)

// Load reads, substitutes, parses, defaults and validates the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Library.Root == "" {
		c.Library.Root = DefaultLibraryRoot
	}
	if c.Library.Scratch == "" {
		c.Library.Scratch = filepath.Join(c.Library.Root, ".scratch")
	}
	if c.Import.FetchConcurrency == 0 {
		c.Import.FetchConcurrency = DefaultFetchConcurrency
	}
	if c.Import.FetchTimeout == 0 {
		c.Import.FetchTimeout = DefaultFetchTimeout
	}
	if c.Inbox.Settle == 0 {
		c.Inbox.Settle = DefaultInboxSettle
	}
	if c.Events.PruneSchedule == "" {
		c.Events.PruneSchedule = DefaultPruneSchedule
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR} with environment variable values.
// ${VAR:-default} falls back to default when VAR is unset or empty.
// Unresolved variables are left in place and returned sorted.
func substituteEnvVars(content string) (string, []string) {
	missingSet := make(map[string]bool)

	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name := parts[1]
		hasDefault := len(match) > len(name)+3 // longer than ${NAME}

		if value, ok := os.LookupEnv(name); ok && (value != "" || !hasDefault) {
			return value
		}
		if hasDefault {
			return parts[2]
		}
		missingSet[name] = true
		return match
	})

	var missing []string
	for name := range missingSet {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return result, missing
}
