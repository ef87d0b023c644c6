package target

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/log"
)

// DirectoryContainer provides the bundles found in a directory. When the
// directory has a plugins subdirectory, that is scanned instead.
type DirectoryContainer struct {
	base
	path string
}

func (c *DirectoryContainer) Type() string { return TypeDirectory }

// Location returns the directory path.
func (c *DirectoryContainer) Location(resolve bool) (string, error) {
	if !resolve {
		return c.path, nil
	}
	return c.substitute(c.path)
}

func (c *DirectoryContainer) ResolveBundles(ctx context.Context, _ *Definition) ([]bundle.Resolved, error) {
	return c.scan(ctx, false)
}

func (c *DirectoryContainer) ResolveSourceBundles(ctx context.Context, _ *Definition) ([]bundle.Resolved, error) {
	return c.scan(ctx, true)
}

// scan reads every entry of the directory in name order and keeps the
// bundles whose source classification equals source.
func (c *DirectoryContainer) scan(ctx context.Context, source bool) ([]bundle.Resolved, error) {
	dir, err := c.Location(true)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LocationError{Type: TypeDirectory, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &LocationError{Type: TypeDirectory, Path: dir, Err: errors.New("not a directory")}
	}
	if fi, err := os.Stat(filepath.Join(dir, "plugins")); err == nil && fi.IsDir() {
		dir = filepath.Join(dir, "plugins")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LocationError{Type: TypeDirectory, Path: dir, Err: err}
	}

	l := log.FromContext(ctx)
	report(ctx, "scanning %s", dir)

	scope := bundle.NewScope()
	defer scope.Close()
	gen := bundle.NewGenerator(scope)

	var out []bundle.Resolved
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		root := filepath.Join(dir, e.Name())
		rb, err := gen.Generate(root)
		if err != nil {
			if errors.Is(err, bundle.ErrNotBundle) {
				l.Debug("skipping non-bundle", "path", root)
			} else {
				l.Warnf("skipping %s: %v", root, err)
			}
			continue
		}
		if rb.Source == source {
			out = append(out, *rb)
		}
	}
	return out, nil
}

func (c *DirectoryContainer) Equal(other Container) bool {
	o, ok := other.(*DirectoryContainer)
	return ok && o.path == c.path && restrictionsEqual(c.restrictions, o.restrictions)
}

func (c *DirectoryContainer) String() string {
	return fmt.Sprintf("Directory %s", c.path)
}
