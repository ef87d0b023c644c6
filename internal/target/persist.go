package target

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/p2"
)

// FormatVersion is written in the pde processing instruction.
const FormatVersion = "3.5"

// ErrInvalidFormat is returned for documents that are not target files.
var ErrInvalidFormat = errors.New("invalid target definition format")

// Include modes of installable unit locations.
const (
	includePlanner = "planner"
	includeSlicer  = "slicer"
)

type xmlTarget struct {
	XMLName      xml.Name
	Name         string           `xml:"name,attr,omitempty"`
	Description  string           `xml:"description,attr,omitempty"`
	Locations    *xmlLocations    `xml:"locations"`
	Location     *xmlLocation     `xml:"location"`
	Environment  *xmlEnvironment  `xml:"environment"`
	LauncherArgs *xmlLauncherArgs `xml:"launcherArgs"`
}

type xmlLocations struct {
	Locations []xmlLocation `xml:"location"`
}

type xmlLocation struct {
	Path                string           `xml:"path,attr,omitempty"`
	Type                string           `xml:"type,attr,omitempty"`
	ID                  string           `xml:"id,attr,omitempty"`
	Version             string           `xml:"version,attr,omitempty"`
	Configuration       string           `xml:"configuration,attr,omitempty"`
	IncludeMode         string           `xml:"includeMode,attr,omitempty"`
	IncludeAllPlatforms bool             `xml:"includeAllPlatforms,attr,omitempty"`
	UseDefault          bool             `xml:"useDefault,attr,omitempty"`
	Units               []xmlUnit        `xml:"unit"`
	Repositories        []xmlRepository  `xml:"repository"`
	Restrictions        []xmlRestriction `xml:"restriction"`
}

type xmlUnit struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr,omitempty"`
}

type xmlRepository struct {
	Location string `xml:"location,attr"`
}

type xmlRestriction struct {
	Name     string `xml:",chardata"`
	Version  string `xml:"version,attr,omitempty"`
	Optional bool   `xml:"optional,attr,omitempty"`
}

type xmlEnvironment struct {
	OS   string `xml:"os,omitempty"`
	WS   string `xml:"ws,omitempty"`
	Arch string `xml:"arch,omitempty"`
	NL   string `xml:"nl,omitempty"`
}

type xmlLauncherArgs struct {
	ProgramArgs string `xml:"programArgs,omitempty"`
	VMArgs      string `xml:"vmArgs,omitempty"`
}

// Write serializes def as target XML.
func Write(def *Definition, w io.Writer) error {
	x := xmlTarget{
		XMLName:     xml.Name{Local: "target"},
		Name:        def.Name,
		Description: def.Description,
	}
	if len(def.Containers) > 0 {
		x.Locations = &xmlLocations{}
		for _, c := range def.Containers {
			loc, err := toXML(c)
			if err != nil {
				return err
			}
			x.Locations.Locations = append(x.Locations.Locations, loc)
		}
	}
	if def.OS != "" || def.WS != "" || def.Arch != "" || def.NL != "" {
		x.Environment = &xmlEnvironment{OS: def.OS, WS: def.WS, Arch: def.Arch, NL: def.NL}
	}
	if def.ProgramArgs != "" || def.VMArgs != "" {
		x.LauncherArgs = &xmlLauncherArgs{ProgramArgs: def.ProgramArgs, VMArgs: def.VMArgs}
	}

	if _, err := io.WriteString(w, xml.Header+`<?pde version="`+FormatVersion+`"?>`+"\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return fmt.Errorf("encode target: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func toXML(c Container) (xmlLocation, error) {
	raw, _ := c.Location(false)
	loc := xmlLocation{Type: c.Type()}
	switch c := c.(type) {
	case *DirectoryContainer:
		loc.Path = raw
	case *FeatureContainer:
		loc.Path = raw
		loc.ID = c.id
		loc.Version = c.version
	case *ProfileContainer:
		loc.Path = raw
		loc.Configuration = c.configuration
	case *IUContainer:
		loc.Path = raw
		loc.IncludeMode = includePlanner
		if !c.includeAllRequired {
			loc.IncludeMode = includeSlicer
		}
		loc.IncludeAllPlatforms = c.includeAllEnvironments
		for _, d := range c.units {
			loc.Units = append(loc.Units, xmlUnit{ID: d.ID, Version: d.Version})
		}
		for _, r := range c.repositories {
			loc.Repositories = append(loc.Repositories, xmlRepository{Location: r})
		}
	default:
		return xmlLocation{}, fmt.Errorf("unsupported container %T", c)
	}
	for _, r := range c.Restrictions() {
		loc.Restrictions = append(loc.Restrictions, xmlRestriction{Name: r.SymbolicName, Version: r.Version, Optional: r.Optional})
	}
	return loc, nil
}

// Read parses target XML. The root element must be target; elements within
// a block may come in any order. The returned definition has no handle and
// its containers are not bound to a service.
func Read(r io.Reader) (*Definition, error) {
	dec := xml.NewDecoder(r)
	var start xml.StartElement
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: no root element", ErrInvalidFormat)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			start = se
			break
		}
	}
	if start.Name.Local != "target" {
		return nil, fmt.Errorf("%w: root element is %q, want target", ErrInvalidFormat, start.Name.Local)
	}

	var x xmlTarget
	if err := dec.DecodeElement(&x, &start); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	def := &Definition{Name: x.Name, Description: x.Description}
	if x.Locations != nil {
		for _, loc := range x.Locations.Locations {
			c, err := fromXML(loc)
			if err != nil {
				return nil, err
			}
			def.Containers = append(def.Containers, c)
		}
	}
	if x.Location != nil {
		// Older files name the installation in a single top-level location.
		home := x.Location.Path
		if x.Location.UseDefault || home == "" {
			home = "${eclipse_home}"
		}
		def.Containers = append(def.Containers, &DirectoryContainer{path: home})
	}
	if e := x.Environment; e != nil {
		def.OS = strings.TrimSpace(e.OS)
		def.WS = strings.TrimSpace(e.WS)
		def.Arch = strings.TrimSpace(e.Arch)
		def.NL = strings.TrimSpace(e.NL)
	}
	if a := x.LauncherArgs; a != nil {
		def.ProgramArgs = strings.TrimSpace(a.ProgramArgs)
		def.VMArgs = strings.TrimSpace(a.VMArgs)
	}
	return def, nil
}

func fromXML(loc xmlLocation) (Container, error) {
	var c Container
	switch loc.Type {
	case "", TypeDirectory:
		c = &DirectoryContainer{path: loc.Path}
	case TypeFeature:
		if loc.ID == "" {
			return nil, fmt.Errorf("%w: feature location %s has no id", ErrInvalidFormat, loc.Path)
		}
		c = &FeatureContainer{home: loc.Path, id: loc.ID, version: loc.Version}
	case TypeProfile:
		c = &ProfileContainer{home: loc.Path, configuration: loc.Configuration}
	case TypeIU:
		iu := &IUContainer{
			includeAllRequired:     loc.IncludeMode != includeSlicer,
			includeAllEnvironments: loc.IncludeAllPlatforms,
		}
		for _, u := range loc.Units {
			iu.units = append(iu.units, p2.Descriptor{ID: u.ID, Version: u.Version})
		}
		for _, r := range loc.Repositories {
			iu.repositories = append(iu.repositories, r.Location)
		}
		c = iu
	default:
		return nil, fmt.Errorf("%w: unknown location type %q", ErrInvalidFormat, loc.Type)
	}

	var rs []bundle.Restriction
	for _, r := range loc.Restrictions {
		rs = append(rs, bundle.Restriction{SymbolicName: strings.TrimSpace(r.Name), Version: r.Version, Optional: r.Optional})
	}
	c.SetRestrictions(rs)
	return c, nil
}
