package target

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/feature"
	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/version"
)

// FeatureContainer provides the plugins referenced by one feature of an
// installation. The feature lives in <home>/features/<id>_<version>, its
// plugins in <home>/plugins.
type FeatureContainer struct {
	base
	home    string
	id      string
	version string
}

func (c *FeatureContainer) Type() string { return TypeFeature }

// Location returns the installation home.
func (c *FeatureContainer) Location(resolve bool) (string, error) {
	if !resolve {
		return c.home, nil
	}
	return c.substitute(c.home)
}

// FeatureID returns the feature id.
func (c *FeatureContainer) FeatureID() string { return c.id }

// FeatureVersion returns the requested feature version, or "" for newest.
func (c *FeatureContainer) FeatureVersion() string { return c.version }

func (c *FeatureContainer) ResolveBundles(ctx context.Context, def *Definition) ([]bundle.Resolved, error) {
	return c.resolve(ctx, def, false)
}

func (c *FeatureContainer) ResolveSourceBundles(ctx context.Context, def *Definition) ([]bundle.Resolved, error) {
	return c.resolve(ctx, def, true)
}

// FeatureDir returns the directory of the selected feature version.
func (c *FeatureContainer) FeatureDir() (string, error) {
	home, err := c.Location(true)
	if err != nil {
		return "", err
	}
	features := filepath.Join(home, "features")
	if fi, err := os.Stat(features); err != nil || !fi.IsDir() {
		return "", &LocationError{Type: TypeFeature, Path: features, Err: errors.New("features directory does not exist")}
	}

	if c.version != "" {
		dir := filepath.Join(features, c.id+"_"+c.version)
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			return "", &LocationError{Type: TypeFeature, Path: dir, Err: fmt.Errorf("feature %s version %s does not exist", c.id, c.version)}
		}
		return dir, nil
	}

	entries, err := os.ReadDir(features)
	if err != nil {
		return "", &LocationError{Type: TypeFeature, Path: features, Err: err}
	}
	prefix := c.id + "_"
	best := ""
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok || !e.IsDir() {
			continue
		}
		if best == "" || version.CompareStrings(suffix, best) > 0 {
			best = suffix
		}
	}
	if best == "" {
		return "", &LocationError{Type: TypeFeature, Path: features, Err: fmt.Errorf("feature %s does not exist", c.id)}
	}
	return filepath.Join(features, prefix+best), nil
}

func (c *FeatureContainer) resolve(ctx context.Context, def *Definition, source bool) ([]bundle.Resolved, error) {
	dir, err := c.FeatureDir()
	if err != nil {
		return nil, err
	}
	f, err := feature.Load(dir)
	if err != nil {
		return nil, &LocationError{Type: TypeFeature, Path: dir, Err: err}
	}

	home, _ := c.Location(true)
	plugins := &DirectoryContainer{base: base{svc: c.svc}, path: filepath.Join(home, "plugins")}
	all, err := plugins.scan(ctx, source)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string][]bundle.Resolved)
	for _, rb := range all {
		candidates[rb.Info.SymbolicName] = append(candidates[rb.Info.SymbolicName], rb)
	}

	l := log.FromContext(ctx)
	var out []bundle.Resolved
	for _, p := range f.Plugins {
		list := candidates[p.ID]
		if len(list) == 0 {
			if source {
				l.Debug("no source bundle for feature plugin", "feature", f.ID, "plugin", p.ID)
			} else {
				l.Warnf("feature %s references %s %s which is not in %s", f.ID, p.ID, p.Version, plugins.path)
			}
			continue
		}
		out = append(out, pick(list, p.Version))
	}
	return out, nil
}

// pick returns the candidate with version v, the newest candidate when v
// is empty or 0.0.0, or else the first candidate.
func pick(list []bundle.Resolved, v string) bundle.Resolved {
	if v == "" || v == version.Empty.String() {
		best := list[0]
		for _, rb := range list[1:] {
			if version.CompareStrings(rb.Info.Version, best.Info.Version) > 0 {
				best = rb
			}
		}
		return best
	}
	for _, rb := range list {
		if rb.Info.Version == v {
			return rb
		}
	}
	return list[0]
}

func (c *FeatureContainer) Equal(other Container) bool {
	o, ok := other.(*FeatureContainer)
	return ok && o.home == c.home && o.id == c.id && o.version == c.version &&
		restrictionsEqual(c.restrictions, o.restrictions)
}

func (c *FeatureContainer) String() string {
	if c.version == "" {
		return fmt.Sprintf("Feature %s in %s", c.id, c.home)
	}
	return fmt.Sprintf("Feature %s %s in %s", c.id, c.version, c.home)
}
