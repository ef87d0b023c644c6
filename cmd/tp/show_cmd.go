package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/target"
	"github.com/raphi011/tp/internal/ui/static"
	"github.com/raphi011/tp/internal/ui/styles"
)

func newShowCmd() *cobra.Command {
	var (
		jsonOut bool
		yamlOut bool
	)

	cmd := &cobra.Command{
		Use:     "show [target]",
		Short:   "Show a target definition",
		GroupID: GroupTarget,
		Args:    cobra.MaximumNArgs(1),
		Long: `Show the environment and locations of a target.

Without an argument the project target from .tp.toml is shown, or the
active target. A target is named by registry name, memento or path to a
.target file.`,
		Example: `  tp show               # Active target
  tp show rcp           # Target named 'rcp'
  tp show rcp.target    # Target file
  tp show rcp --yaml    # Output as YAML`,
		ValidArgsFunction: completeFirstTarget,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}
			def, err := loadTarget(ctx, svc, argOrEmpty(args, 0))
			if err != nil {
				return err
			}

			if f := formatOf(jsonOut, yamlOut); f != output.FormatText {
				return out.Encode(f, newTargetView(def))
			}
			printTarget(out, def)
			return nil
		},
	}

	addFormatFlags(cmd, &jsonOut, &yamlOut)

	return cmd
}

// printTarget prints a definition in text form.
func printTarget(out *output.Printer, def *target.Definition) {
	out.Println(styles.HeaderStyle.Render(targetLabel(def)))
	out.Println(styles.MutedStyle.Render(def.Handle().Memento()))
	if def.Description != "" {
		out.Println(def.Description)
	}
	out.Println()

	out.Printf("Environment:  %s\n", envString(def))
	if def.ProgramArgs != "" {
		out.Printf("Program args: %s\n", def.ProgramArgs)
	}
	if def.VMArgs != "" {
		out.Printf("VM args:      %s\n", def.VMArgs)
	}
	out.Println()

	if len(def.Containers) == 0 {
		out.Println("No locations (add one with 'tp location add')")
		return
	}
	printLocations(out, def)
}

// printLocations prints the containers of def as a numbered table.
func printLocations(out *output.Printer, def *target.Definition) {
	rows := make([][]string, 0, len(def.Containers))
	for i, c := range def.Containers {
		v := newLocationView(i+1, c)
		rows = append(rows, []string{
			fmt.Sprint(v.Index),
			v.Type,
			locationDetail(v),
			strings.Join(v.Restrictions, ", "),
		})
	}
	out.Print(static.RenderTable([]string{"#", "TYPE", "LOCATION", "RESTRICTIONS"}, rows))
}

func locationDetail(v locationView) string {
	switch v.Type {
	case target.TypeFeature:
		s := v.Location + " " + v.Feature
		if v.Version != "" {
			s += "@" + v.Version
		}
		return s
	case target.TypeProfile:
		if v.Config != "" {
			return v.Location + " (configuration " + v.Config + ")"
		}
		return v.Location
	case target.TypeIU:
		s := strings.Join(v.Units, " ")
		if len(v.Repositories) > 0 {
			s += styles.MutedStyle.Render(" from " + strings.Join(v.Repositories, ", "))
		}
		return s
	default:
		return v.Location
	}
}

// envString renders the effective environment. Values taken from the
// running platform are marked.
func envString(def *target.Definition) string {
	env := def.Environment()
	explicit := map[string]string{"os": def.OS, "ws": def.WS, "arch": def.Arch}
	var parts []string
	for _, k := range []string{"os", "ws", "arch"} {
		p := k + "=" + env[k]
		if explicit[k] == "" {
			p += styles.MutedStyle.Render(" (default)")
		}
		parts = append(parts, p)
	}
	if def.NL != "" {
		parts = append(parts, "nl="+def.NL)
	}
	return strings.Join(parts, " ")
}
