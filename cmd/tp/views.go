package main

import (
	"fmt"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/target"
)

// targetView is the --json/--yaml form of a target definition.
type targetView struct {
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	Memento     string         `json:"memento" yaml:"memento"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	OS          string         `json:"os,omitempty" yaml:"os,omitempty"`
	WS          string         `json:"ws,omitempty" yaml:"ws,omitempty"`
	Arch        string         `json:"arch,omitempty" yaml:"arch,omitempty"`
	NL          string         `json:"nl,omitempty" yaml:"nl,omitempty"`
	ProgramArgs string         `json:"programArgs,omitempty" yaml:"programArgs,omitempty"`
	VMArgs      string         `json:"vmArgs,omitempty" yaml:"vmArgs,omitempty"`
	Locations   []locationView `json:"locations" yaml:"locations"`
}

// locationView is one container of a targetView.
type locationView struct {
	Index        int      `json:"index" yaml:"index"`
	Type         string   `json:"type" yaml:"type"`
	Location     string   `json:"location" yaml:"location"`
	Feature      string   `json:"feature,omitempty" yaml:"feature,omitempty"`
	Version      string   `json:"version,omitempty" yaml:"version,omitempty"`
	Config       string   `json:"configuration,omitempty" yaml:"configuration,omitempty"`
	Units        []string `json:"units,omitempty" yaml:"units,omitempty"`
	Repositories []string `json:"repositories,omitempty" yaml:"repositories,omitempty"`
	Restrictions []string `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
}

// entryView is one line of tp list.
type entryView struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Memento string   `json:"memento" yaml:"memento"`
	Path    string   `json:"path" yaml:"path"`
	Labels  []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Active  bool     `json:"active,omitempty" yaml:"active,omitempty"`
}

// resolveView is the --json/--yaml form of a resolution.
type resolveView struct {
	Target  string            `json:"target" yaml:"target"`
	Bundles []bundle.Resolved `json:"bundles" yaml:"bundles"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func newTargetView(def *target.Definition) targetView {
	v := targetView{
		Name:        def.Name,
		Memento:     def.Handle().Memento(),
		Description: def.Description,
		OS:          def.OS,
		WS:          def.WS,
		Arch:        def.Arch,
		NL:          def.NL,
		ProgramArgs: def.ProgramArgs,
		VMArgs:      def.VMArgs,
		Locations:   make([]locationView, 0, len(def.Containers)),
	}
	for i, c := range def.Containers {
		v.Locations = append(v.Locations, newLocationView(i+1, c))
	}
	return v
}

func newLocationView(index int, c target.Container) locationView {
	loc, _ := c.Location(false)
	v := locationView{Index: index, Type: c.Type(), Location: loc}
	switch c := c.(type) {
	case *target.FeatureContainer:
		v.Feature = c.FeatureID()
		v.Version = c.FeatureVersion()
	case *target.ProfileContainer:
		v.Config, _ = c.ConfigurationLocation(false)
	case *target.IUContainer:
		for _, u := range c.Units() {
			v.Units = append(v.Units, unitString(u.ID, u.Version))
		}
		v.Repositories = c.Repositories()
	}
	for _, r := range c.Restrictions() {
		v.Restrictions = append(v.Restrictions, r.String())
	}
	return v
}

func unitString(id, version string) string {
	if version == "" {
		return id
	}
	return fmt.Sprintf("%s@%s", id, version)
}
