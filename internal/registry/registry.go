// Package registry manages the target registry at <metadata>/targets.json.
//
// The registry maps display names and labels to target handle mementos and
// remembers the active target. Local targets are also discoverable by
// scanning the metadata directory; target files outside of it are only
// known through the registry.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/storage"
)

// ErrNotFound is returned by Find when no entry matches.
var ErrNotFound = errors.New("target not found")

// Target is a registered target definition.
type Target struct {
	Memento string   `json:"memento"`          // handle memento
	Name    string   `json:"name"`             // display name
	Labels  []string `json:"labels,omitempty"` // labels for grouping
}

// Registry holds all registered targets.
type Registry struct {
	Targets []Target `json:"targets"`
	Active  string   `json:"active,omitempty"` // memento of the active target

	path string
}

// Path returns the registry file of a metadata directory.
func Path(dir string) string {
	return filepath.Join(dir, "targets.json")
}

// Load reads the registry of dir. A missing file is an empty registry.
func Load(dir string) (*Registry, error) {
	reg := &Registry{path: Path(dir)}
	if err := storage.LoadJSON(reg.path, reg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return reg, nil
		}
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return reg, nil
}

// LoadWithLock acquires the registry lock and loads the registry.
// Caller must defer unlock() if err == nil.
func LoadWithLock(dir string) (*Registry, func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	lock := cache.NewFileLock(filepath.Join(dir, "targets.lock"))
	if err := lock.Lock(); err != nil {
		return nil, nil, fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	reg, err := Load(dir)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	return reg, func() { _ = lock.Unlock() }, nil
}

// Save writes the registry atomically.
func (r *Registry) Save() error {
	if err := storage.SaveJSON(r.path, r); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Put adds t or updates the name of the entry with the same memento.
// Labels of an existing entry are kept.
func (r *Registry) Put(t Target) {
	for i := range r.Targets {
		if r.Targets[i].Memento == t.Memento {
			r.Targets[i].Name = t.Name
			return
		}
	}
	r.Targets = append(r.Targets, t)
}

// Remove unregisters a target by memento or name. It reports whether an
// entry was removed.
func (r *Registry) Remove(ref string) bool {
	for i, t := range r.Targets {
		if t.Memento == ref || t.Name == ref {
			r.Targets = slices.Delete(r.Targets, i, i+1)
			return true
		}
	}
	return false
}

// Find looks up a target by memento or name. Names shared by several
// targets are ambiguous.
func (r *Registry) Find(ref string) (*Target, error) {
	var matches []*Target
	for i := range r.Targets {
		t := &r.Targets[i]
		if t.Memento == ref {
			return t, nil
		}
		if t.Name == ref {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		mementos := make([]string, len(matches))
		for i, m := range matches {
			mementos[i] = m.Memento
		}
		return nil, fmt.Errorf("target name %q is ambiguous: %s", ref, strings.Join(mementos, ", "))
	}
}

// FindByLabel returns all targets with the given label.
func (r *Registry) FindByLabel(label string) []*Target {
	var matches []*Target
	for i := range r.Targets {
		if r.Targets[i].HasLabel(label) {
			matches = append(matches, &r.Targets[i])
		}
	}
	return matches
}

// AllNames returns all target names, sorted and without duplicates.
func (r *Registry) AllNames() []string {
	var names []string
	for _, t := range r.Targets {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// AllLabels returns all unique labels across all targets.
func (r *Registry) AllLabels() []string {
	var labels []string
	for _, t := range r.Targets {
		labels = append(labels, t.Labels...)
	}
	slices.Sort(labels)
	return slices.Compact(labels)
}

// AddLabel adds a label to a target.
func (r *Registry) AddLabel(ref, label string) error {
	t, err := r.Find(ref)
	if err != nil {
		return err
	}
	if t.HasLabel(label) {
		return nil
	}
	t.Labels = append(t.Labels, label)
	slices.Sort(t.Labels)
	return nil
}

// RemoveLabel removes a label from a target.
func (r *Registry) RemoveLabel(ref, label string) error {
	t, err := r.Find(ref)
	if err != nil {
		return err
	}
	if i := slices.Index(t.Labels, label); i >= 0 {
		t.Labels = slices.Delete(t.Labels, i, i+1)
	}
	return nil
}

// HasLabel checks if a target has a specific label.
func (t *Target) HasLabel(label string) bool {
	return slices.Contains(t.Labels, label)
}

// String returns a display string for the target.
func (t *Target) String() string {
	if len(t.Labels) > 0 {
		return fmt.Sprintf("%s (%s)", t.Name, strings.Join(t.Labels, ", "))
	}
	return t.Name
}
