package p2

import (
	"fmt"
	"strings"

	"github.com/raphi011/tp/internal/cache"
	"github.com/raphi011/tp/internal/version"
)

// Capability namespaces.
const (
	NamespaceIU     = "org.eclipse.equinox.p2.iu"
	NamespaceBundle = "osgi.bundle"
)

// ArtifactKey identifies an artifact in artifact repositories and the pool.
type ArtifactKey = cache.Key

// Capability is something a unit provides.
type Capability struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

// Requirement is something a unit needs.
type Requirement struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
	Range     string `json:"range,omitempty" yaml:"range,omitempty"`
	Optional  bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Filter    Filter `json:"filter,omitempty" yaml:"filter,omitempty"`
}

func (r Requirement) String() string {
	s := r.Namespace + " " + r.Name
	if r.Range != "" {
		s += " " + r.Range
	}
	return s
}

// Filter restricts a unit or requirement to an environment. Empty fields
// match anything.
type Filter struct {
	OS   string `json:"os,omitempty" yaml:"os,omitempty"`
	WS   string `json:"ws,omitempty" yaml:"ws,omitempty"`
	Arch string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// Matches reports whether env (keys os, ws, arch) satisfies the filter.
// A nil env matches everything.
func (f Filter) Matches(env map[string]string) bool {
	if env == nil {
		return true
	}
	return matchField(f.OS, env["os"]) && matchField(f.WS, env["ws"]) && matchField(f.Arch, env["arch"])
}

func matchField(want, have string) bool {
	if want == "" || have == "" {
		return true
	}
	for _, w := range strings.Split(want, ",") {
		if strings.TrimSpace(w) == have {
			return true
		}
	}
	return false
}

// Unit is an installable unit.
type Unit struct {
	ID         string            `json:"id" yaml:"id"`
	Version    string            `json:"version" yaml:"version"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Provides   []Capability      `json:"provides,omitempty" yaml:"provides,omitempty"`
	Requires   []Requirement     `json:"requires,omitempty" yaml:"requires,omitempty"`
	Artifacts  []ArtifactKey     `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Filter     Filter            `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// Key returns "id/version", the unit's identity within a profile.
func (u Unit) Key() string {
	return u.ID + "/" + u.Version
}

func (u Unit) String() string {
	return u.ID + " " + u.Version
}

// Descriptor returns the unit's id and version.
func (u Unit) Descriptor() Descriptor {
	return Descriptor{ID: u.ID, Version: u.Version}
}

// Capabilities returns the declared capabilities plus the implicit unit
// identity capability.
func (u Unit) Capabilities() []Capability {
	caps := make([]Capability, 0, len(u.Provides)+1)
	caps = append(caps, Capability{Namespace: NamespaceIU, Name: u.ID, Version: u.Version})
	return append(caps, u.Provides...)
}

// Satisfies reports whether the unit provides a capability matching req.
func (u Unit) Satisfies(req Requirement) (bool, error) {
	rng, err := version.ParseRange(req.Range)
	if err != nil {
		return false, fmt.Errorf("requirement %s: %w", req, err)
	}
	for _, c := range u.Capabilities() {
		if c.Namespace != req.Namespace || c.Name != req.Name {
			continue
		}
		v, err := version.Parse(c.Version)
		if err != nil {
			continue
		}
		if rng.Includes(v) {
			return true, nil
		}
	}
	return false, nil
}

// ProvidesBundle reports whether the unit provides an osgi.bundle capability.
func (u Unit) ProvidesBundle() bool {
	for _, c := range u.Provides {
		if c.Namespace == NamespaceBundle {
			return true
		}
	}
	return false
}

// Descriptor names one unit by id and version.
type Descriptor struct {
	ID      string
	Version string
}

// Equal compares versions exactly and ids by suffix: o.ID must end with
// d.ID. Descriptors are therefore not symmetric when ids differ.
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Version == o.Version && strings.HasSuffix(o.ID, d.ID)
}

func (d Descriptor) String() string {
	if d.Version == "" {
		return d.ID
	}
	return d.ID + " " + d.Version
}

// Query selects units.
type Query func(Unit) bool

// UnitQuery matches units by id and, unless version is empty or 0.0.0,
// exact version.
func UnitQuery(id, ver string) Query {
	return func(u Unit) bool {
		if u.ID != id {
			return false
		}
		return ver == "" || ver == version.Empty.String() || u.Version == ver
	}
}

// BundleQuery matches units that provide a bundle.
func BundleQuery() Query {
	return Unit.ProvidesBundle
}

// Queryable is anything units can be queried from.
type Queryable interface {
	Query(q Query) []Unit
}

// units is a plain Queryable over a slice.
type units []Unit

func (us units) Query(q Query) []Unit {
	var out []Unit
	for _, u := range us {
		if q(u) {
			out = append(out, u)
		}
	}
	return out
}

// Compound queries each source in order and concatenates the results.
func Compound(sources ...Queryable) Queryable {
	var all units
	for _, s := range sources {
		all = append(all, s.Query(func(Unit) bool { return true })...)
	}
	return all
}

// Newest returns the unit with the highest version. us must not be empty.
func Newest(us []Unit) Unit {
	best := us[0]
	for _, u := range us[1:] {
		if version.CompareStrings(u.Version, best.Version) > 0 {
			best = u
		}
	}
	return best
}
