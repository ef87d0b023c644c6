// Package extreg is a small, transient extension registry.
//
// Legacy plugins declare extensions in plugin.xml. The bundle scanner
// contributes a plugin's descriptor to a registry and asks which extension
// points it extends; a contribution to [SourcePoint] marks a legacy source
// bundle. A registry is created for one scan and closed when the scan ends.
package extreg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sync"
)

// SourcePoint is the extension point legacy source bundles contribute to.
const SourcePoint = "org.eclipse.pde.core.source"

// ErrClosed is returned by a registry that has been closed.
var ErrClosed = errors.New("extension registry closed")

// Element is one configuration element inside an extension.
type Element struct {
	Name       string
	Attributes map[string]string
}

// Attribute returns the named attribute, or "".
func (e Element) Attribute(name string) string {
	return e.Attributes[name]
}

// Extension is a contribution to an extension point.
type Extension struct {
	Point       string
	Contributor string
	Elements    []Element
}

// Registry holds extension points and the extensions contributed to them.
type Registry struct {
	mu         sync.Mutex
	points     map[string]struct{}
	extensions map[string][]Extension
	closed     bool
}

// New returns a registry with [SourcePoint] already declared.
func New() *Registry {
	r := &Registry{
		points:     make(map[string]struct{}),
		extensions: make(map[string][]Extension),
	}
	r.points[SourcePoint] = struct{}{}
	return r
}

type descriptorXML struct {
	Points     []pointXML     `xml:"extension-point"`
	Extensions []extensionXML `xml:"extension"`
}

type pointXML struct {
	ID string `xml:"id,attr"`
}

type extensionXML struct {
	Point    string       `xml:"point,attr"`
	Elements []elementXML `xml:",any"`
}

type elementXML struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
}

// AddContribution parses a plugin.xml or fragment.xml document and records
// its extension points and extensions under contributor. Extension point ids
// declared by the document are qualified with the contributor name.
func (r *Registry) AddContribution(rd io.Reader, contributor string) error {
	var d descriptorXML
	if err := xml.NewDecoder(rd).Decode(&d); err != nil {
		return fmt.Errorf("parse contribution of %s: %w", contributor, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	for _, p := range d.Points {
		if p.ID != "" {
			r.points[contributor+"."+p.ID] = struct{}{}
		}
	}

	exts := make([]Extension, 0, len(d.Extensions))
	for _, x := range d.Extensions {
		ext := Extension{Point: x.Point, Contributor: contributor}
		for _, el := range x.Elements {
			attrs := make(map[string]string, len(el.Attrs))
			for _, a := range el.Attrs {
				attrs[a.Name.Local] = a.Value
			}
			ext.Elements = append(ext.Elements, Element{Name: el.XMLName.Local, Attributes: attrs})
		}
		exts = append(exts, ext)
	}
	r.extensions[contributor] = append(r.extensions[contributor], exts...)
	return nil
}

// Extensions returns the extensions contributed by contributor to declared
// extension points. Extensions to unknown points are not returned.
func (r *Registry) Extensions(contributor string) ([]Extension, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	var out []Extension
	for _, ext := range r.extensions[contributor] {
		if _, ok := r.points[ext.Point]; ok {
			out = append(out, ext)
		}
	}
	return out, nil
}

// Close releases the registry. Closing twice is a no-op.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.points = nil
	r.extensions = nil
	return nil
}
