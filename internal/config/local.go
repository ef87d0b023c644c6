package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LocalConfigFileName is the per-project config file.
const LocalConfigFileName = ".tp.toml"

// LocalConfig holds per-project settings from .tp.toml.
// Zero values indicate "not set" (inherit from global).
type LocalConfig struct {
	Target       string            `toml:"target"`
	Repositories []string          `toml:"repositories"` // appended to global
	Variables    map[string]string `toml:"variables"`    // override global by name
	Environment  EnvironmentConfig `toml:"environment"`
}

// FindLocal walks up from dir to the first directory containing .tp.toml.
// Returns "" if there is none.
func FindLocal(dir string) string {
	for {
		if _, err := os.Stat(filepath.Join(dir, LocalConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadLocal reads the .tp.toml in dir.
// Returns nil (no error) if the file doesn't exist.
// Returns an error only on parse or validation failure.
func LoadLocal(dir string) (*LocalConfig, error) {
	configFile := filepath.Join(dir, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local config %s: %w", configFile, err)
	}

	var local LocalConfig
	if _, err := toml.Decode(string(data), &local); err != nil {
		return nil, fmt.Errorf("failed to parse local config %s: %w", configFile, err)
	}
	if err := local.Environment.validate(); err != nil {
		return nil, fmt.Errorf("%w in %s", err, configFile)
	}

	// Relative repository directories are relative to the project.
	for i, r := range local.Repositories {
		if expanded, err := expandPath(r); err == nil {
			r = expanded
		}
		if !filepath.IsAbs(r) && !hasScheme(r) {
			r = filepath.Join(dir, r)
		}
		local.Repositories[i] = r
	}
	return &local, nil
}

// hasScheme reports whether loc looks like a URL (http:, https:, file:).
func hasScheme(loc string) bool {
	for i, c := range loc {
		switch {
		case c == ':':
			return i > 1
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '+', c == '-', c == '.':
		default:
			return false
		}
	}
	return false
}

// defaultLocalConfig is the template for tp config init --local
const defaultLocalConfig = `# tp project config
# Place this file at the root of your project.
# Settings here are added to the global ~/.config/tp/config.toml.

# Target used when a command gets no target argument (name or memento)
# target = "rcp"

# Additional repositories for installable unit locations.
# Relative paths are relative to this file.
# repositories = ["repo"]

# Variables for ${name} in location paths. Override global variables.
# [variables]
# workspace = "~/src/project"

# Environment for new targets created in this project
# [environment]
# os = "linux"
`

// DefaultLocalConfig returns the default local configuration template content.
func DefaultLocalConfig() string {
	return defaultLocalConfig
}
