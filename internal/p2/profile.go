package p2

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/storage"
)

// Profile properties.
const (
	// PropCache is the bundle pool directory of a profile.
	PropCache = "org.eclipse.equinox.p2.cache"
	// PropEnvironments holds the os/ws/arch filter of a profile.
	PropEnvironments = "org.eclipse.equinox.p2.environments"
	// PropInstalledIU marks units a container asked for explicitly.
	PropInstalledIU = "org.eclipse.pde.installed"
	// PropConfigured is set on units by the configure phase.
	PropConfigured = "org.eclipse.pde.configured"
)

// ErrNoProfile is returned for an unknown profile id.
var ErrNoProfile = errors.New("profile not found")

// Profile is the installed state of one target.
type Profile struct {
	ID             string                       `json:"id"`
	Properties     map[string]string            `json:"properties,omitempty"`
	Units          []Unit                       `json:"units,omitempty"`
	UnitProperties map[string]map[string]string `json:"unit_properties,omitempty"`
	Timestamp      time.Time                    `json:"timestamp"`
}

// Property returns a profile property, or "".
func (p *Profile) Property(key string) string {
	return p.Properties[key]
}

// UnitProperty returns a property recorded for u, or "".
func (p *Profile) UnitProperty(u Unit, key string) string {
	return p.UnitProperties[u.Key()][key]
}

// Query returns installed units matching q.
func (p *Profile) Query(q Query) []Unit {
	return units(p.Units).Query(q)
}

// Contains reports whether a unit with u's id and version is installed.
func (p *Profile) Contains(u Unit) bool {
	for _, have := range p.Units {
		if have.Key() == u.Key() {
			return true
		}
	}
	return false
}

func (p *Profile) install(u Unit) {
	if !p.Contains(u) {
		p.Units = append(p.Units, u)
	}
}

func (p *Profile) setUnitProperty(u Unit, key, value string) {
	if p.UnitProperties == nil {
		p.UnitProperties = make(map[string]map[string]string)
	}
	props := p.UnitProperties[u.Key()]
	if props == nil {
		props = make(map[string]string)
		p.UnitProperties[u.Key()] = props
	}
	props[key] = value
}

// Environment returns the profile's os/ws/arch filter values.
func (p *Profile) Environment() map[string]string {
	raw := p.Property(PropEnvironments)
	if raw == "" {
		return nil
	}
	env := make(map[string]string)
	for _, kv := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			env[strings.TrimPrefix(strings.TrimSpace(k), "osgi.")] = strings.TrimSpace(v)
		}
	}
	return env
}

// ProfileRegistry stores profiles as <dir>/<id>.json.
type ProfileRegistry struct {
	dir string
}

// NewProfileRegistry returns a registry rooted at dir.
func NewProfileRegistry(dir string) *ProfileRegistry {
	return &ProfileRegistry{dir: dir}
}

// Dir returns the registry directory.
func (r *ProfileRegistry) Dir() string {
	return r.dir
}

func (r *ProfileRegistry) path(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// Lock acquires the file lock of profile id. Callers must run the returned
// function to release it.
func (r *ProfileRegistry) Lock(id string) (func(), error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, err
	}
	lock := cache.NewFileLock(filepath.Join(r.dir, id+".lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock profile %s: %w", id, err)
	}
	return func() { _ = lock.Unlock() }, nil
}

// Get loads profile id.
func (r *ProfileRegistry) Get(id string) (*Profile, error) {
	var p Profile
	if err := storage.LoadJSON(r.path(id), &p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, ErrNoProfile)
		}
		return nil, fmt.Errorf("load profile %s: %w", id, err)
	}
	return &p, nil
}

// GetOrCreate loads profile id, creating it with props when missing.
// Properties of an existing profile are updated with props.
func (r *ProfileRegistry) GetOrCreate(id string, props map[string]string) (*Profile, error) {
	p, err := r.Get(id)
	if errors.Is(err, ErrNoProfile) {
		p = &Profile{ID: id, Properties: make(map[string]string)}
	} else if err != nil {
		return nil, err
	}
	if p.Properties == nil {
		p.Properties = make(map[string]string)
	}
	changed := p.Timestamp.IsZero()
	for k, v := range props {
		if p.Properties[k] != v {
			p.Properties[k] = v
			changed = true
		}
	}
	if changed {
		if err := r.Save(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Save writes p atomically and bumps its timestamp.
func (r *ProfileRegistry) Save(p *Profile) error {
	p.Timestamp = time.Now().UTC()
	if err := storage.SaveJSON(r.path(p.ID), p); err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

// Remove deletes profile id. Removing a missing profile is not an error.
func (r *ProfileRegistry) Remove(id string) error {
	err := os.Remove(r.path(id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	os.Remove(filepath.Join(r.dir, id+".lock"))
	return nil
}

// List returns the ids of all stored profiles, sorted.
func (r *ProfileRegistry) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if id, ok := strings.CutSuffix(e.Name(), ".json"); ok && !e.IsDir() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
