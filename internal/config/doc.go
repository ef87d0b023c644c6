// Package config handles loading and validation of tp configuration.
//
// Configuration is read from ~/.config/tp/config.toml with environment
// variable overrides for directory settings. A .tp.toml in the working
// directory adds per-project settings on top.
//
// # Configuration Sources (highest priority first)
//
//   - TP_METADATA_DIR env var: directory for targets, profiles and the registry
//   - TP_BUNDLE_POOL env var: directory provisioned artifacts are stored in
//   - TP_THEME env var: color theme
//   - .tp.toml in the working directory
//   - Config file settings
//   - Default values
//
// # Key Settings
//
//   - metadata_dir: tp data directory (default: ~/.tp)
//   - bundle_pool: artifact pool (default: <metadata_dir>/p2/pool)
//   - repositories: repositories used by installable unit locations that
//     name none
//   - [variables]: values for ${name} in location paths
//   - [environment]: os/ws/arch/nl given to new targets
//   - [resolve] parallel: number of targets resolved at once by --all
//
// # Project Configuration
//
// A .tp.toml selects the target used when commands get no target argument
// and may add variables and repositories:
//
//	target = "rcp"
//	repositories = ["https://repo.example.org/releases"]
//	[variables]
//	workspace = "~/src/rcp"
//
// # Path Validation
//
// Directory paths must be absolute or start with ~ (no relative paths like "."
// or "..") to avoid confusion about the working directory.
package config
