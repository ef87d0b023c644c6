package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/p2"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/resolve"
	"github.com/raphi011/tp/internal/storage"
	"github.com/raphi011/tp/internal/target"
	"github.com/raphi011/tp/internal/variables"
)

// configFromContext returns the config in ctx, or the defaults.
func configFromContext(ctx context.Context) *config.Config {
	if cfg := config.FromContext(ctx); cfg != nil {
		return cfg
	}
	def := config.Default()
	return &def
}

// newService creates the target service for the configured metadata
// directory.
func newService(ctx context.Context) (*target.Service, error) {
	cfg := configFromContext(ctx)
	dir := cfg.MetadataDir
	if dir == "" {
		var err error
		if dir, err = storage.TpDir(); err != nil {
			return nil, fmt.Errorf("metadata directory: %w", err)
		}
	}
	return target.NewService(target.Options{
		MetadataDir:  dir,
		BundlePool:   cfg.BundlePool,
		Repositories: cfg.Repositories,
		Variables:    cfg.Variables,
	})
}

// loadTarget resolves ref and loads the definition. An empty ref selects
// the project or active target.
func loadTarget(ctx context.Context, svc *target.Service, ref string) (*target.Definition, error) {
	return resolve.Definition(ctx, svc, ref)
}

// register records def in the target registry without writing the
// definition.
func register(svc *target.Service, def *target.Definition) error {
	reg, unlock, err := registry.LoadWithLock(svc.MetadataDir())
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	defer unlock()
	reg.Put(registry.Target{Memento: def.Handle().Memento(), Name: def.Name})
	return reg.Save()
}

// argOrEmpty returns args[i], or "" if there are fewer args.
func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// absPath makes path absolute relative to the working directory. Paths
// with variables are kept as written.
func absPath(ctx context.Context, path string) string {
	if variables.Contains(path) || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(config.WorkDirFromContext(ctx), path)
}

// parseRestriction parses bsn[@version].
func parseRestriction(s string, optional bool) (bundle.Restriction, error) {
	name, ver, _ := strings.Cut(s, "@")
	if name == "" {
		return bundle.Restriction{}, fmt.Errorf("invalid restriction %q: missing bundle name", s)
	}
	return bundle.Restriction{SymbolicName: name, Version: ver, Optional: optional}, nil
}

// parseUnit parses id[@version].
func parseUnit(s string) (p2.Descriptor, error) {
	id, ver, _ := strings.Cut(s, "@")
	if id == "" {
		return p2.Descriptor{}, fmt.Errorf("invalid unit %q: missing id", s)
	}
	return p2.Descriptor{ID: id, Version: ver}, nil
}

// parseIndex parses a 1-based location index of def.
func parseIndex(def *target.Definition, s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 1 || i > len(def.Containers) {
		if len(def.Containers) == 0 {
			return 0, errors.New("target has no locations")
		}
		return 0, fmt.Errorf("invalid location index %q: must be 1 to %d", s, len(def.Containers))
	}
	return i - 1, nil
}

// addFormatFlags registers --json and --yaml.
func addFormatFlags(cmd *cobra.Command, jsonOut, yamlOut *bool) {
	cmd.Flags().BoolVar(jsonOut, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(yamlOut, "yaml", false, "Output as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func formatOf(jsonOut, yamlOut bool) output.Format {
	switch {
	case jsonOut:
		return output.FormatJSON
	case yamlOut:
		return output.FormatYAML
	default:
		return output.FormatText
	}
}

// targetLabel returns the display name of a definition.
func targetLabel(def *target.Definition) string {
	if def.Name != "" {
		return def.Name
	}
	return def.Handle().Memento()
}

// completeTargets completes registered target names.
func completeTargets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	svc, err := newService(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	reg, err := registry.Load(svc.MetadataDir())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var matches []string
	for _, name := range reg.AllNames() {
		if strings.HasPrefix(name, toComplete) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeFirstTarget completes a target name for the first argument only.
func completeFirstTarget(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeTargets(cmd, args, toComplete)
}

// completeLabels completes labels in use.
func completeLabels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	svc, err := newService(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	reg, err := registry.Load(svc.MetadataDir())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var matches []string
	for _, l := range reg.AllLabels() {
		if strings.HasPrefix(l, toComplete) {
			matches = append(matches, l)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}
