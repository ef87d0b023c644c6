// Package storage provides atomic file operations for tp's metadata
// directory (~/.tp by default).
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EnvMetadataDir overrides the metadata directory.
const EnvMetadataDir = "TP_METADATA_DIR"

// TpDir returns the metadata directory, creating it if needed.
// TP_METADATA_DIR takes precedence over ~/.tp.
func TpDir() (string, error) {
	dir := os.Getenv(EnvMetadataDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".tp")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// WriteAtomic writes data to path through a temp file and a rename, so
// readers never observe a partially written file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}

// SaveJSON atomically writes data as indented JSON to path.
func SaveJSON(path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return WriteAtomic(path, jsonData, 0o600)
}

// LoadJSON reads JSON from the specified path into dest.
// Returns os.ErrNotExist if file doesn't exist (caller should handle).
func LoadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}
