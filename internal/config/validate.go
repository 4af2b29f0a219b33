package config

import (
	"fmt"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/vmunix/romshelf/internal/system"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Library.Root == "" {
		errs = append(errs, "library.root: required")
	}
	if c.Library.Root != "" && c.Library.Scratch != "" && sameDir(c.Library.Root, c.Library.Scratch) {
		errs = append(errs, "library.scratch: must differ from library.root")
	}

	if c.Import.FetchConcurrency < 0 {
		errs = append(errs, fmt.Sprintf("import.fetch_concurrency: must be positive, got %d", c.Import.FetchConcurrency))
	}
	if c.Import.FetchTimeout < 0 {
		errs = append(errs, "import.fetch_timeout: must not be negative")
	}

	if c.Inbox.Enabled {
		if c.Inbox.Path == "" {
			errs = append(errs, "inbox.path: required when inbox is enabled")
		} else if c.Library.Root != "" && sameDir(c.Inbox.Path, c.Library.Root) {
			errs = append(errs, "inbox.path: must differ from library.root")
		}
	}
	if c.Inbox.Settle < 0 {
		errs = append(errs, "inbox.settle: must not be negative")
	}

	known := make(map[string]bool)
	for _, s := range system.Builtin() {
		known[s.ID] = true
	}
	for _, id := range c.Systems.Enabled {
		if !known[id] {
			errs = append(errs, fmt.Sprintf("systems.enabled: unknown system %q", id))
		}
	}

	if c.Events.Retention < 0 {
		errs = append(errs, "events.retention: must not be negative")
	}
	if c.Events.PruneSchedule != "" {
		if _, err := cron.ParseStandard(c.Events.PruneSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("events.prune_schedule: %v", err))
		}
	}

	return errs
}

func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
