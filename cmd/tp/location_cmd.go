package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/p2"
	"github.com/raphi011/tp/internal/target"
	"github.com/raphi011/tp/internal/variables"
)

func newLocationCmd() *cobra.Command {
	var targetRef string

	cmd := &cobra.Command{
		Use:     "location",
		Short:   "Manage the locations of a target",
		Aliases: []string{"loc"},
		GroupID: GroupLocation,
		Long: `Manage the locations bundles of a target come from.

Locations apply to the target given with -t, else the project target
from .tp.toml, else the active target. Paths may use variables such as
${eclipse_home}, ${env_var:NAME} and names from the [variables] config.`,
		Example: `  tp location add dir ~/bundles
  tp location add feature '${eclipse_home}' org.eclipse.rcp
  tp location add profile /opt/eclipse
  tp location add iu org.eclipse.equinox.sdk.feature.group --repo https://download.example.org/r
  tp location list -t rcp
  tp location remove 2`,
	}

	cmd.PersistentFlags().StringVarP(&targetRef, "target", "t", "", "Target to edit (default: project or active target)")
	cmd.RegisterFlagCompletionFunc("target", completeTargets)

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a location",
	}
	add.AddCommand(newLocationAddDirCmd(&targetRef))
	add.AddCommand(newLocationAddFeatureCmd(&targetRef))
	add.AddCommand(newLocationAddProfileCmd(&targetRef))
	add.AddCommand(newLocationAddIUCmd(&targetRef))

	cmd.AddCommand(add)
	cmd.AddCommand(newLocationRemoveCmd(&targetRef))
	cmd.AddCommand(newLocationListCmd(&targetRef))

	return cmd
}

// addLocation appends the container built by mk to the target and saves it.
func addLocation(ctx context.Context, ref string, mk func(*target.Service) (target.Container, error)) error {
	out := output.FromContext(ctx)

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	def, err := loadTarget(ctx, svc, ref)
	if err != nil {
		return err
	}
	c, err := mk(svc)
	if err != nil {
		return err
	}
	for _, existing := range def.Containers {
		if existing.Equal(c) {
			return fmt.Errorf("%s already has location %s", targetLabel(def), c)
		}
	}

	def.Containers = append(def.Containers, c)
	if err := svc.Save(def); err != nil {
		return err
	}
	out.Printf("Added location %d to %s: %s\n", len(def.Containers), targetLabel(def), c)
	return nil
}

// warnMissing logs a warning when a location path without variables does
// not exist.
func warnMissing(ctx context.Context, path string) {
	if variables.Contains(path) {
		return
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.FromContext(ctx).Warnf("%s does not exist", path)
	}
}

func newLocationAddDirCmd(targetRef *string) *cobra.Command {
	return &cobra.Command{
		Use:     "dir <path>",
		Short:   "Add a directory of bundles",
		Aliases: []string{"directory"},
		Args:    cobra.ExactArgs(1),
		Long: `Add a directory location.

Every bundle in the directory is part of the target: JAR files and
directories with a manifest. A plugins subdirectory is used when present.`,
		Example: `  tp location add dir ~/bundles
  tp location add dir '${workspace}/lib'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := absPath(ctx, args[0])
			warnMissing(ctx, path)
			return addLocation(ctx, *targetRef, func(svc *target.Service) (target.Container, error) {
				return svc.NewDirectoryContainer(path), nil
			})
		},
	}
}

func newLocationAddFeatureCmd(targetRef *string) *cobra.Command {
	return &cobra.Command{
		Use:   "feature <home> <id> [version]",
		Short: "Add the plugins of a feature",
		Args:  cobra.RangeArgs(2, 3),
		Long: `Add a feature location.

The plugins listed by the feature in the installation at home are part of
the target. Without a version the newest installed feature is used.`,
		Example: `  tp location add feature /opt/eclipse org.eclipse.rcp
  tp location add feature /opt/eclipse org.eclipse.rcp 4.30.0.v20231201`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			home := absPath(ctx, args[0])
			warnMissing(ctx, home)
			return addLocation(ctx, *targetRef, func(svc *target.Service) (target.Container, error) {
				return svc.NewFeatureContainer(home, args[1], argOrEmpty(args, 2)), nil
			})
		},
	}
}

func newLocationAddProfileCmd(targetRef *string) *cobra.Command {
	var configuration string

	cmd := &cobra.Command{
		Use:     "profile <home>",
		Short:   "Add an installation",
		Aliases: []string{"install"},
		Args:    cobra.ExactArgs(1),
		Long: `Add a profile location.

The bundles of the installation at home are part of the target, as listed
by its configuration area.`,
		Example: `  tp location add profile /opt/eclipse
  tp location add profile '${eclipse_home}'
  tp location add profile /opt/eclipse --configuration ~/.eclipse/config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			home := absPath(ctx, args[0])
			warnMissing(ctx, home)
			conf := ""
			if configuration != "" {
				conf = absPath(ctx, configuration)
			}
			return addLocation(ctx, *targetRef, func(svc *target.Service) (target.Container, error) {
				return svc.NewProfileContainer(home, conf), nil
			})
		},
	}

	cmd.Flags().StringVarP(&configuration, "configuration", "c", "", "Configuration area (default: <home>/configuration)")
	cmd.MarkFlagDirname("configuration")

	return cmd
}

func newLocationAddIUCmd(targetRef *string) *cobra.Command {
	var (
		repos           []string
		slicer          bool
		allEnvironments bool
	)

	cmd := &cobra.Command{
		Use:     "iu <id[@version]>...",
		Short:   "Add installable units from repositories",
		Aliases: []string{"unit"},
		Args:    cobra.MinimumNArgs(1),
		Long: `Add an installable unit location.

The units and what they require are provisioned from the repositories on
resolution. Without --repo the repositories from the config are searched.
Without a version the newest unit is used.

By default requirements are planned for the target environment. With
--slicer only the units reachable from the roots are included, and
--all-environments ignores environment filters.`,
		Example: `  tp location add iu org.eclipse.rcp.feature.group --repo https://download.example.org/r
  tp location add iu a.feature.group@1.2.0 b.feature.group --slicer
  tp location add iu a.feature.group --slicer --all-environments`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if allEnvironments && !slicer {
				return errors.New("--all-environments requires --slicer")
			}

			units := make([]p2.Descriptor, 0, len(args))
			for _, a := range args {
				u, err := parseUnit(a)
				if err != nil {
					return err
				}
				units = append(units, u)
			}
			locs := make([]string, 0, len(repos))
			for _, r := range repos {
				locs = append(locs, repoLocation(ctx, r))
			}

			return addLocation(ctx, *targetRef, func(svc *target.Service) (target.Container, error) {
				c := svc.NewIUContainer(units, locs)
				c.SetIncludeMode(!slicer, allEnvironments)
				return c, nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&repos, "repo", "r", nil, "Repository to provision from (repeatable)")
	cmd.Flags().BoolVar(&slicer, "slicer", false, "Include only units reachable from the roots")
	cmd.Flags().BoolVar(&allEnvironments, "all-environments", false, "Ignore environment filters (with --slicer)")

	return cmd
}

// repoLocation makes local repository paths absolute and keeps URLs.
func repoLocation(ctx context.Context, loc string) string {
	if strings.Contains(loc, "://") || strings.HasPrefix(loc, "file:") {
		return loc
	}
	return absPath(ctx, loc)
}

func newLocationRemoveCmd(targetRef *string) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <index>",
		Short:   "Remove a location",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		Long: `Remove a location by its index as shown by 'tp location list'.`,
		Example: `  tp location remove 2
  tp location remove 1 -t rcp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}
			def, err := loadTarget(ctx, svc, *targetRef)
			if err != nil {
				return err
			}
			i, err := parseIndex(def, args[0])
			if err != nil {
				return err
			}

			removed := def.Containers[i]
			def.Containers = append(def.Containers[:i], def.Containers[i+1:]...)
			if err := svc.Save(def); err != nil {
				return err
			}
			out.Printf("Removed location %d from %s: %s\n", i+1, targetLabel(def), removed)
			return nil
		},
	}
}

func newLocationListCmd(targetRef *string) *cobra.Command {
	var (
		jsonOut bool
		yamlOut bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List locations",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Example: `  tp location list
  tp location list -t rcp --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}
			def, err := loadTarget(ctx, svc, *targetRef)
			if err != nil {
				return err
			}

			if f := formatOf(jsonOut, yamlOut); f != output.FormatText {
				return out.Encode(f, newTargetView(def).Locations)
			}
			if len(def.Containers) == 0 {
				out.Println("No locations (add one with 'tp location add')")
				return nil
			}
			printLocations(out, def)
			return nil
		},
	}

	addFormatFlags(cmd, &jsonOut, &yamlOut)

	return cmd
}
