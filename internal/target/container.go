package target

import (
	"context"
	"fmt"
	"slices"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/variables"
)

// Container type names, as persisted in the type attribute of a location.
const (
	TypeDirectory = "Directory"
	TypeFeature   = "Feature"
	TypeProfile   = "Profile"
	TypeIU        = "InstallableUnit"
)

// Container is one source of bundles in a target definition.
type Container interface {
	// Type returns one of the Type* constants.
	Type() string

	// Location returns the container's primary location. With resolve set,
	// variables are substituted; otherwise the raw value is returned.
	Location(resolve bool) (string, error)

	ResolveBundles(ctx context.Context, def *Definition) ([]bundle.Resolved, error)
	ResolveSourceBundles(ctx context.Context, def *Definition) ([]bundle.Resolved, error)

	// Restrictions limits the container's result to the named bundles.
	// Nil means everything the container provides.
	Restrictions() []bundle.Restriction
	SetRestrictions([]bundle.Restriction)

	// Equal reports whether other describes the same content.
	Equal(other Container) bool

	String() string

	bind(s *Service)
}

var defaultVariables = variables.New()

// base holds what every container shares: the owning service, used for
// variable substitution and provisioning, and restrictions.
type base struct {
	svc          *Service
	restrictions []bundle.Restriction
}

func (b *base) bind(s *Service) {
	b.svc = s
}

func (b *base) Restrictions() []bundle.Restriction {
	return slices.Clone(b.restrictions)
}

func (b *base) SetRestrictions(r []bundle.Restriction) {
	b.restrictions = slices.Clone(r)
}

func (b *base) variables() *variables.Manager {
	if b.svc != nil && b.svc.vars != nil {
		return b.svc.vars
	}
	return defaultVariables
}

// substitute resolves variables in a location field at use time.
func (b *base) substitute(s string) (string, error) {
	if !variables.Contains(s) {
		return s, nil
	}
	out, err := b.variables().Substitute(s)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", s, err)
	}
	return out, nil
}

// LocationError reports a missing or unusable container location.
type LocationError struct {
	Type string
	Path string
	Err  error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("%s location %s: %v", e.Type, e.Path, e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

func restrictionsEqual(a, b []bundle.Restriction) bool {
	return slices.Equal(a, b)
}
