package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath names the environment variable that overrides discovery.
const EnvConfigPath = "ROMSHELF_CONFIG"

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "romshelf", "config.toml")
}

// SearchPaths lists the candidate config locations in priority order,
// excluding the environment override.
func SearchPaths() []string {
	return []string{
		"./config.toml",
		DefaultPath(),
		"/etc/romshelf/config.toml",
	}
}

// Discover finds the config file.
// Search order:
//  1. ROMSHELF_CONFIG environment variable
//  2. ./config.toml (current directory)
//  3. $XDG_CONFIG_HOME/romshelf/config.toml
//  4. /etc/romshelf/config.toml
func Discover() (string, error) {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfigPath, envPath, err)
		}
		return envPath, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
