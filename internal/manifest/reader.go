package manifest

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Path is the manifest location inside a bundle root.
const Path = "META-INF/MANIFEST.MF"

// Legacy descriptor file names.
const (
	PluginDescriptor   = "plugin.xml"
	FragmentDescriptor = "fragment.xml"
)

// ErrNoManifest is returned when a bundle root has no readable descriptor.
var ErrNoManifest = errors.New("no bundle manifest")

// Converter synthesizes manifest headers for a legacy (pre-OSGi) plugin
// directory from its plugin.xml or fragment.xml.
type Converter interface {
	Convert(dir string) (Headers, error)
}

// Reader reads bundle manifests from archives and directories.
type Reader struct {
	// Converter handles legacy descriptors. Nil disables legacy support.
	Converter Converter
}

// NewReader returns a Reader using the built-in legacy converter.
func NewReader() *Reader {
	return &Reader{Converter: PluginConverter{}}
}

// IsArchive reports whether root names a bundle archive.
func IsArchive(root string) bool {
	return strings.EqualFold(filepath.Ext(root), ".jar")
}

// Read returns the manifest headers of the bundle rooted at root.
// Returns ErrNoManifest (possibly wrapped) when no descriptor exists.
func (r *Reader) Read(root string) (Headers, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if !IsArchive(root) {
			return nil, fmt.Errorf("%s: %w", root, ErrNoManifest)
		}
		return readArchive(root)
	}

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(Path)))
	if err == nil {
		defer f.Close()
		h, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("parse manifest of %s: %w", root, err)
		}
		// A manifest without a symbolic name may still describe a legacy plugin.
		if h.Has(BundleSymbolicName) {
			return h, nil
		}
		if legacy, err := r.convert(root); err == nil {
			return legacy, nil
		}
		return h, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open manifest of %s: %w", root, err)
	}

	return r.convert(root)
}

func (r *Reader) convert(dir string) (Headers, error) {
	if r.Converter == nil || !HasLegacyDescriptor(dir) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoManifest)
	}
	h, err := r.Converter.Convert(dir)
	if err != nil {
		return nil, fmt.Errorf("convert legacy descriptor of %s: %w", dir, err)
	}
	return h, nil
}

func readArchive(path string) (Headers, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, Path) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", Path, path, err)
		}
		defer rc.Close()
		h, err := Parse(rc)
		if err != nil {
			return nil, fmt.Errorf("parse manifest of %s: %w", path, err)
		}
		return h, nil
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNoManifest)
}

// LegacyDescriptor returns the path of dir's plugin.xml or fragment.xml,
// or "" when neither exists.
func LegacyDescriptor(dir string) string {
	for _, name := range []string{PluginDescriptor, FragmentDescriptor} {
		p := filepath.Join(dir, name)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// HasLegacyDescriptor reports whether dir has a plugin.xml or fragment.xml.
func HasLegacyDescriptor(dir string) bool {
	return LegacyDescriptor(dir) != ""
}
