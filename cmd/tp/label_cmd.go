package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/resolve"
	"github.com/raphi011/tp/internal/target"
)

func newLabelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "label",
		Short:   "Manage target labels",
		Aliases: []string{"lbl"},
		GroupID: GroupTarget,
		Long: `Manage labels on targets.

Labels are stored in the target registry. 'tp resolve --label' and
'tp list --label' select targets by label.`,
		Example: `  tp label add release rcp      # Add label to 'rcp'
  tp label add release          # Add label to the active target
  tp label remove release rcp   # Remove label
  tp label list rcp             # List labels of 'rcp'
  tp label list -g              # List all labels`,
	}

	cmd.AddCommand(newLabelAddCmd())
	cmd.AddCommand(newLabelRemoveCmd())
	cmd.AddCommand(newLabelListCmd())

	return cmd
}

// labelTargets resolves refs, or the default target when refs is empty,
// and registers targets the registry does not know yet.
func labelTargets(cmd *cobra.Command, svc *target.Service, reg *registry.Registry, refs []string) ([]string, error) {
	if len(refs) == 0 {
		refs = []string{""}
	}
	mementos := make([]string, 0, len(refs))
	for _, ref := range refs {
		h, err := resolve.Ref(cmd.Context(), svc, ref)
		if err != nil {
			return nil, err
		}
		if _, err := reg.Find(h.Memento()); err != nil {
			def, err := svc.Load(h)
			if err != nil {
				return nil, err
			}
			reg.Put(registry.Target{Memento: h.Memento(), Name: def.Name})
		}
		mementos = append(mementos, h.Memento())
	}
	return mementos, nil
}

func newLabelAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <label> [target...]",
		Short: "Add a label to targets",
		Args:  cobra.MinimumNArgs(1),
		Example: `  tp label add release          # Add to the active target
  tp label add release rcp ide  # Add to 'rcp' and 'ide'`,
		ValidArgsFunction: completeLabelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editLabels(cmd, args, func(reg *registry.Registry, memento, label string) (string, error) {
				return "Added label %q to %s\n", reg.AddLabel(memento, label)
			})
		},
	}

	return cmd
}

func newLabelRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <label> [target...]",
		Short: "Remove a label from targets",
		Args:  cobra.MinimumNArgs(1),
		Example: `  tp label remove release       # Remove from the active target
  tp label remove release rcp   # Remove from 'rcp'`,
		ValidArgsFunction: completeLabelArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editLabels(cmd, args, func(reg *registry.Registry, memento, label string) (string, error) {
				return "Removed label %q from %s\n", reg.RemoveLabel(memento, label)
			})
		},
	}

	return cmd
}

// editLabels applies edit to the targets named in args[1:] and saves the
// registry. edit returns the message format for each target.
func editLabels(cmd *cobra.Command, args []string, edit func(*registry.Registry, string, string) (string, error)) error {
	ctx := cmd.Context()
	out := output.FromContext(ctx)
	label := args[0]

	svc, err := newService(ctx)
	if err != nil {
		return err
	}

	reg, unlock, err := registry.LoadWithLock(svc.MetadataDir())
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	defer unlock()

	mementos, err := labelTargets(cmd, svc, reg, args[1:])
	if err != nil {
		return err
	}
	for _, m := range mementos {
		format, err := edit(reg, m, label)
		if err != nil {
			return fmt.Errorf("%s: %w", m, err)
		}
		t, _ := reg.Find(m)
		out.Printf(format, label, displayName(t))
	}
	return reg.Save()
}

func newLabelListCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "list [target...]",
		Short: "List labels",
		Args:  cobra.ArbitraryArgs,
		Long: `List labels of targets.

Without arguments the labels of the default target are listed.`,
		Example: `  tp label list           # Labels of the active target
  tp label list rcp       # Labels of 'rcp'
  tp label list -g        # All labels`,
		ValidArgsFunction: completeTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}
			reg, err := registry.Load(svc.MetadataDir())
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}

			if global {
				labels := reg.AllLabels()
				if len(labels) == 0 {
					out.Println("No labels defined")
					return nil
				}
				for _, l := range labels {
					out.Println(l)
				}
				return nil
			}

			mementos, err := labelTargets(cmd, svc, reg, args)
			if err != nil {
				return err
			}
			for _, m := range mementos {
				t, _ := reg.Find(m)
				if len(mementos) > 1 {
					out.Printf("%s: ", displayName(t))
				}
				if len(t.Labels) == 0 {
					out.Println("(no labels)")
				} else {
					out.Println(strings.Join(t.Labels, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&global, "global", "g", false, "List all labels across targets")

	return cmd
}

func displayName(t *registry.Target) string {
	if t.Name != "" {
		return t.Name
	}
	return t.Memento
}

// completeLabelArgs completes a label first, then target names.
func completeLabelArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeLabels(cmd, args, toComplete)
	}
	return completeTargets(cmd, args, toComplete)
}
