package target

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/platform"
)

// ProfileContainer provides the bundles of an installed runtime, as listed
// in its bundles.info and source.info files.
type ProfileContainer struct {
	base
	home          string
	configuration string
}

func (c *ProfileContainer) Type() string { return TypeProfile }

// Location returns the installation home.
func (c *ProfileContainer) Location(resolve bool) (string, error) {
	if !resolve {
		return c.home, nil
	}
	return c.substitute(c.home)
}

// ConfigurationLocation returns the configuration directory, or "" when the
// default home/configuration is used.
func (c *ProfileContainer) ConfigurationLocation(resolve bool) (string, error) {
	if !resolve || c.configuration == "" {
		return c.configuration, nil
	}
	return c.substitute(c.configuration)
}

func (c *ProfileContainer) locations() (home, config string, err error) {
	home, err = c.Location(true)
	if err != nil {
		return "", "", err
	}
	config, err = c.ConfigurationLocation(true)
	if err != nil {
		return "", "", err
	}
	if config != "" {
		if fi, err := os.Stat(config); err != nil || !fi.IsDir() {
			return "", "", &LocationError{Type: TypeProfile, Path: config, Err: errors.New("configuration area does not exist")}
		}
	}
	return home, config, nil
}

// ResolveBundles fails when the installation lists no bundles.
func (c *ProfileContainer) ResolveBundles(ctx context.Context, _ *Definition) ([]bundle.Resolved, error) {
	home, config, err := c.locations()
	if err != nil {
		return nil, err
	}
	report(ctx, "reading bundles of %s", home)

	infos, err := platform.ReadBundles(home, config)
	if err != nil {
		return nil, &LocationError{Type: TypeProfile, Path: home, Err: err}
	}
	if len(infos) == 0 {
		return nil, &LocationError{Type: TypeProfile, Path: home, Err: errors.New("no bundles found")}
	}
	return c.enrich(ctx, infos, false)
}

// ResolveSourceBundles treats a missing or empty source list as no bundles.
func (c *ProfileContainer) ResolveSourceBundles(ctx context.Context, _ *Definition) ([]bundle.Resolved, error) {
	home, config, err := c.locations()
	if err != nil {
		return nil, err
	}
	infos, err := platform.ReadSourceBundles(home, config)
	if err != nil {
		return nil, &LocationError{Type: TypeProfile, Path: home, Err: err}
	}
	return c.enrich(ctx, infos, true)
}

func (c *ProfileContainer) enrich(ctx context.Context, infos []bundle.Info, source bool) ([]bundle.Resolved, error) {
	scope := bundle.NewScope()
	defer scope.Close()
	gen := bundle.NewGenerator(scope)

	out := make([]bundle.Resolved, 0, len(infos))
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, gen.Enrich(info, source))
	}
	return out, nil
}

// VMArguments returns the JVM arguments the installation launches with.
func (c *ProfileContainer) VMArguments() ([]string, error) {
	home, err := c.Location(true)
	if err != nil {
		return nil, err
	}
	return platform.VMArguments(home)
}

func (c *ProfileContainer) Equal(other Container) bool {
	o, ok := other.(*ProfileContainer)
	return ok && o.home == c.home && o.configuration == c.configuration &&
		restrictionsEqual(c.restrictions, o.restrictions)
}

func (c *ProfileContainer) String() string {
	if c.configuration == "" {
		return fmt.Sprintf("Installation %s", c.home)
	}
	return fmt.Sprintf("Installation %s (configuration %s)", c.home, c.configuration)
}
