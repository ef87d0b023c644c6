// Package feature parses feature descriptors (feature.xml).
package feature

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DescriptorFile is the descriptor name inside a feature directory.
const DescriptorFile = "feature.xml"

// ErrNoDescriptor is returned when a feature directory has no feature.xml.
var ErrNoDescriptor = errors.New("no feature descriptor")

// Feature is a parsed feature descriptor.
type Feature struct {
	ID       string
	Version  string
	Label    string
	Plugins  []Plugin
	Includes []Include
}

// Plugin is a plugin entry referenced by a feature.
type Plugin struct {
	ID       string
	Version  string
	Fragment bool
	OS       string
	WS       string
	Arch     string
	NL       string
}

// Include is a nested feature reference.
type Include struct {
	ID       string
	Version  string
	Optional bool
}

type featureXML struct {
	XMLName  xml.Name     `xml:"feature"`
	ID       string       `xml:"id,attr"`
	Version  string       `xml:"version,attr"`
	Label    string       `xml:"label,attr"`
	Plugins  []pluginXML  `xml:"plugin"`
	Includes []includeXML `xml:"includes"`
}

type pluginXML struct {
	ID       string `xml:"id,attr"`
	Version  string `xml:"version,attr"`
	Fragment string `xml:"fragment,attr"`
	OS       string `xml:"os,attr"`
	WS       string `xml:"ws,attr"`
	Arch     string `xml:"arch,attr"`
	NL       string `xml:"nl,attr"`
}

type includeXML struct {
	ID       string `xml:"id,attr"`
	Version  string `xml:"version,attr"`
	Optional string `xml:"optional,attr"`
}

// Parse decodes a feature descriptor.
func Parse(r io.Reader) (*Feature, error) {
	var fx featureXML
	if err := xml.NewDecoder(r).Decode(&fx); err != nil {
		return nil, fmt.Errorf("parse %s: %w", DescriptorFile, err)
	}
	if fx.ID == "" {
		return nil, fmt.Errorf("parse %s: missing feature id", DescriptorFile)
	}

	f := &Feature{ID: fx.ID, Version: fx.Version, Label: fx.Label}
	for _, p := range fx.Plugins {
		if p.ID == "" {
			continue
		}
		f.Plugins = append(f.Plugins, Plugin{
			ID:       p.ID,
			Version:  p.Version,
			Fragment: strings.EqualFold(p.Fragment, "true"),
			OS:       p.OS,
			WS:       p.WS,
			Arch:     p.Arch,
			NL:       p.NL,
		})
	}
	for _, inc := range fx.Includes {
		if inc.ID == "" {
			continue
		}
		f.Includes = append(f.Includes, Include{
			ID:       inc.ID,
			Version:  inc.Version,
			Optional: strings.EqualFold(inc.Optional, "true"),
		})
	}
	return f, nil
}

// Load reads dir/feature.xml.
func Load(dir string) (*Feature, error) {
	f, err := os.Open(filepath.Join(dir, DescriptorFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, ErrNoDescriptor)
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
