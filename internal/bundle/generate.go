package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/tp/internal/extreg"
	"github.com/raphi011/tp/internal/manifest"
)

// ErrNotBundle is returned for a location without a usable manifest.
var ErrNotBundle = errors.New("not a bundle")

// Generator turns bundle locations into resolved bundles.
type Generator struct {
	Reader *manifest.Reader
	Scope  *Scope
}

// NewGenerator returns a Generator reading manifests with a default reader.
func NewGenerator(scope *Scope) *Generator {
	return &Generator{Reader: manifest.NewReader(), Scope: scope}
}

// Generate reads the bundle at root. Locations without a manifest or without
// a symbolic name return ErrNotBundle; malformed manifests return an error.
func (g *Generator) Generate(root string) (*Resolved, error) {
	h, err := g.Reader.Read(root)
	if err != nil {
		if errors.Is(err, manifest.ErrNoManifest) {
			return nil, fmt.Errorf("%s: %w", root, ErrNotBundle)
		}
		return nil, err
	}

	name, err := manifest.SymbolicName(h)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest in %s: %w", root, err)
	}
	if name == "" {
		return nil, fmt.Errorf("%s: %w", root, ErrNotBundle)
	}
	ver, err := manifest.Version(h)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest in %s: %w", root, err)
	}

	rb := &Resolved{
		Info:     Info{SymbolicName: name, Version: ver, Location: root},
		Fragment: h.Has(manifest.FragmentHost),
	}
	if err := g.classify(rb, root, h); err != nil {
		return nil, err
	}
	return rb, nil
}

// Enrich reads the manifest of an already identified bundle, such as an
// entry of bundles.info. Problems are reported in the status; the bundle is
// always returned.
func (g *Generator) Enrich(info Info, source bool) Resolved {
	rb := Resolved{Info: info, Source: source}

	h, err := g.Reader.Read(info.Location)
	if err != nil {
		code := CodeInvalidManifest
		if errors.Is(err, os.ErrNotExist) {
			code = CodeDoesNotExist
		}
		rb.Status = Status{Severity: SeverityError, Code: code, Message: err.Error()}
		return rb
	}
	rb.Fragment = h.Has(manifest.FragmentHost)

	if source {
		if err := g.classify(&rb, info.Location, h); err != nil {
			rb.Status = Status{Severity: SeverityWarning, Code: CodeInvalidManifest, Message: err.Error()}
		}
		// bundles.info and source.info already decide the kind
		rb.Source = true
	}
	return rb
}

// classify applies the source heuristic to rb.
func (g *Generator) classify(rb *Resolved, root string, h manifest.Headers) error {
	if raw := h.Get(manifest.EclipseSourceBundle); raw != "" {
		rb.Source = true
		elems, err := manifest.ParseHeader(raw)
		if err != nil {
			return fmt.Errorf("invalid %s in %s: %w", manifest.EclipseSourceBundle, root, err)
		}
		for _, e := range elems {
			if e.Value() != "" && e.Attribute("version") != "" {
				rb.SourceTarget = &Info{SymbolicName: e.Value(), Version: e.Attribute("version")}
				break
			}
		}
		return nil
	}

	// Old-style source bundles were never archived.
	if manifest.IsArchive(root) {
		return nil
	}
	if h.Has(manifest.BundleClassPath) {
		return nil
	}

	desc := manifest.LegacyDescriptor(root)
	if desc == "" {
		return nil
	}
	path, ok, err := g.legacySource(desc, rb.Info.SymbolicName)
	if err != nil {
		return err
	}
	if ok {
		rb.Source = true
		rb.SourcePath = path
	}
	return nil
}

// legacySource contributes the descriptor to the scope's registry and looks
// for a source extension.
func (g *Generator) legacySource(desc, contributor string) (string, bool, error) {
	if g.Scope == nil {
		return "", false, nil
	}

	f, err := os.Open(desc)
	if err != nil {
		return "", false, nil
	}
	defer f.Close()

	reg := g.Scope.Registry()
	if err := reg.AddContribution(f, contributor); err != nil {
		return "", false, fmt.Errorf("read %s: %w", filepath.Base(desc), err)
	}
	exts, err := reg.Extensions(contributor)
	if err != nil {
		return "", false, err
	}
	for _, ext := range exts {
		if ext.Point != extreg.SourcePoint {
			continue
		}
		var path string
		if len(ext.Elements) == 1 {
			path = ext.Elements[0].Attribute("path")
		}
		return path, true, nil
	}
	return "", false, nil
}
