package main

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/resolve"
	"github.com/raphi011/tp/internal/ui/static"
	"github.com/raphi011/tp/internal/ui/styles"
)

func newListCmd() *cobra.Command {
	var (
		jsonOut bool
		yamlOut bool
		label   string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List target definitions",
		Aliases: []string{"ls"},
		GroupID: GroupTarget,
		Args:    cobra.NoArgs,
		Long: `List local targets and registered target files.

The active target is marked. Local targets are listed first, in creation
order, followed by registered target files.`,
		Example: `  tp list               # List all targets
  tp list -l release    # Only targets labeled 'release'
  tp list --json        # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			entries, err := resolve.List(svc)
			if err != nil {
				return err
			}

			views := make([]entryView, 0, len(entries))
			for _, e := range entries {
				if label != "" && !slices.Contains(e.Labels, label) {
					continue
				}
				views = append(views, entryView{
					Name:    e.Name,
					Memento: e.Handle.Memento(),
					Path:    e.Handle.Path(),
					Labels:  e.Labels,
					Active:  e.Active,
				})
			}

			if f := formatOf(jsonOut, yamlOut); f != output.FormatText {
				return out.Encode(f, views)
			}

			if len(views) == 0 {
				out.Println("No targets (create one with 'tp new')")
				return nil
			}

			active := styles.CurrentSymbols().Active
			rows := make([][]string, len(views))
			for i, v := range views {
				mark := ""
				if v.Active {
					mark = styles.SuccessStyle.Render(active)
				}
				rows[i] = []string{mark, v.Name, styles.MutedStyle.Render(v.Memento), strings.Join(v.Labels, ", ")}
			}
			out.Print(static.RenderTable([]string{"", "NAME", "MEMENTO", "LABELS"}, rows))
			return nil
		},
	}

	addFormatFlags(cmd, &jsonOut, &yamlOut)
	cmd.Flags().StringVarP(&label, "label", "l", "", "Only list targets with this label")
	cmd.RegisterFlagCompletionFunc("label", completeLabels)

	return cmd
}
