package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables overriding config file settings.
const (
	EnvMetadataDir = "TP_METADATA_DIR"
	EnvBundlePool  = "TP_BUNDLE_POOL"
	EnvTheme       = "TP_THEME"
)

// DefaultParallel is the default number of targets resolved at once.
const DefaultParallel = 4

// EnvironmentConfig holds the environment given to new targets.
type EnvironmentConfig struct {
	OS   string `toml:"os"`
	WS   string `toml:"ws"`
	Arch string `toml:"arch"`
	NL   string `toml:"nl"`
}

// ResolveConfig holds resolution settings
type ResolveConfig struct {
	Parallel int `toml:"parallel"` // targets resolved at once by resolve --all
}

// ThemeConfig holds UI theme settings
type ThemeConfig struct {
	Name     string `toml:"name"` // preset name: "default", "nord", "none"
	Mode     string `toml:"mode"` // "auto", "light" or "dark"
	Nerdfont bool   `toml:"nerdfont"`
}

// Config holds the tp configuration
type Config struct {
	MetadataDir  string            `toml:"metadata_dir"`
	BundlePool   string            `toml:"bundle_pool"`
	Repositories []string          `toml:"repositories"`
	Variables    map[string]string `toml:"variables"`
	Environment  EnvironmentConfig `toml:"environment"`
	Resolve      ResolveConfig     `toml:"resolve"`
	Theme        ThemeConfig       `toml:"theme"`

	// Target is the default target reference. Only set by a project's
	// .tp.toml.
	Target string `toml:"-"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Resolve: ResolveConfig{Parallel: DefaultParallel},
	}
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the path of the global config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tp", "config.toml"), nil
}

// Load reads config from ~/.config/tp/config.toml.
// Returns Default() if the file doesn't exist.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Default(), fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Default(), err
	}
	if err := cfg.normalize(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// applyEnvOverrides applies TP_* environment variables
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvMetadataDir); v != "" {
		if err := ValidatePath(v, EnvMetadataDir); err != nil {
			return err
		}
		cfg.MetadataDir = v
	}
	if v := os.Getenv(EnvBundlePool); v != "" {
		if err := ValidatePath(v, EnvBundlePool); err != nil {
			return err
		}
		cfg.BundlePool = v
	}
	if v := os.Getenv(EnvTheme); v != "" {
		cfg.Theme.Name = v
	}
	return nil
}

// normalize validates settings, expands ~ and fills in defaults.
func (c *Config) normalize() error {
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"metadata_dir", &c.MetadataDir},
		{"bundle_pool", &c.BundlePool},
	} {
		if err := ValidatePath(*f.val, f.name); err != nil {
			return err
		}
		expanded, err := expandPath(*f.val)
		if err != nil {
			return fmt.Errorf("expand %s: %w", f.name, err)
		}
		*f.val = expanded
	}

	if err := c.Environment.validate(); err != nil {
		return err
	}
	if err := validateEnum(c.Theme.Name, "theme.name", ValidThemeNames); err != nil {
		return err
	}
	if err := validateEnum(c.Theme.Mode, "theme.mode", ValidThemeModes); err != nil {
		return err
	}
	if c.Resolve.Parallel < 0 {
		return fmt.Errorf("resolve.parallel must not be negative, got %d", c.Resolve.Parallel)
	}
	if c.Resolve.Parallel == 0 {
		c.Resolve.Parallel = DefaultParallel
	}

	for name, val := range c.Variables {
		if name == "" || strings.ContainsAny(name, "${}:") {
			return fmt.Errorf("invalid variable name %q", name)
		}
		if expanded, err := expandPath(val); err == nil {
			c.Variables[name] = expanded
		}
	}
	repos := make([]string, 0, len(c.Repositories))
	for _, r := range c.Repositories {
		expanded, err := expandPath(r)
		if err != nil {
			return fmt.Errorf("expand repository %q: %w", r, err)
		}
		repos = append(repos, expanded)
	}
	c.Repositories = appendUnique(nil, repos)
	return nil
}

// VariableNames returns the configured variable names, sorted.
func (c *Config) VariableNames() []string {
	names := make([]string, 0, len(c.Variables))
	for name := range c.Variables {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

const defaultConfig = `# tp configuration

# Directory holding local targets, the target registry and provisioning
# profiles. Must be an absolute path or start with ~.
# Overridden by TP_METADATA_DIR.
# metadata_dir = "~/.tp"

# Directory provisioned artifacts are stored in.
# Defaults to <metadata_dir>/p2/pool. Overridden by TP_BUNDLE_POOL.
# bundle_pool = "~/.tp/p2/pool"

# Repositories searched by installable unit locations that list none.
# Local directories, file: URIs and http(s) URLs are supported.
# repositories = [
#   "https://repo.example.org/releases",
#   "~/mirror/releases",
# ]

# Variables usable as ${name} in location paths. Built in are tp_metadata,
# env_var:NAME and system_property:NAME. Older target files refer to
# eclipse_home.
# [variables]
# eclipse_home = "/opt/eclipse"

# Environment given to new targets. Unset values mean the running platform.
# [environment]
# os = "linux"     # linux, win32, macosx, ...
# ws = "gtk"       # gtk, win32, cocoa, ...
# arch = "x86_64"  # x86_64, aarch64, ...
# nl = "en_US"

# Resolution settings
# [resolve]
# parallel = 4  # targets resolved at once by "tp resolve --all"

# UI theme
# [theme]
# name = "default"  # default, nord, none
# mode = "auto"     # auto, light, dark
# nerdfont = false
`

// DefaultConfig returns the default configuration template content.
func DefaultConfig() string {
	return defaultConfig
}

// Init creates a default config file at ~/.config/tp/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type configKey struct{}

type workDirKey struct{}

// WithConfig returns a new context with cfg stored in it.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the Config from context, or nil if none is stored.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return nil
}

// WithWorkDir returns a new context with the working directory stored in it.
func WithWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workDirKey{}, dir)
}

// WorkDirFromContext returns the working directory from context.
// Falls back to os.Getwd if none is stored.
func WorkDirFromContext(ctx context.Context) string {
	if dir, ok := ctx.Value(workDirKey{}).(string); ok && dir != "" {
		return dir
	}
	wd, _ := os.Getwd()
	return wd
}
