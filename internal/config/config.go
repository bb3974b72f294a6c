package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config carries optional tool overrides and default macro definitions
// from the user's config file. Command-line flags win over file values.
type Config struct {
	GitPath      string `yaml:"git"`
	RPMPath      string `yaml:"rpm"`
	RPMBuildPath string `yaml:"rpmbuild"`

	// ArchiveCommand replaces `git archive` for source archival, e.g.
	// ["git-archive-all"] for trees with nested submodules.
	ArchiveCommand []string `yaml:"archive_command"`

	// Defines are "name=value" entries applied before any --define
	// flag, so command-line definitions win under last-wins semantics.
	Defines []string `yaml:"defines"`
}

// DefaultPath is the config location consulted when no --config flag is
// given: $XDG_CONFIG_HOME/gitrpm/config.yaml or its home fallback.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gitrpm", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gitrpm", "config.yaml")
}

// Load reads the config file at path, or the default location when path
// is empty. A missing default file yields an empty config; a missing
// explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return &Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
