package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/resolve"
	"github.com/raphi011/tp/internal/target"
)

func newActivateCmd() *cobra.Command {
	var unset bool

	cmd := &cobra.Command{
		Use:     "activate [target]",
		Short:   "Set the active target",
		Aliases: []string{"use"},
		GroupID: GroupTarget,
		Args:    cobra.MaximumNArgs(1),
		Long: `Set the target used by commands given no target argument.

Without an argument the active target is printed. A project .tp.toml
naming a target takes precedence over the active target.`,
		Example: `  tp activate rcp       # Make 'rcp' active
  tp activate           # Print the active target
  tp activate --clear   # Unset the active target`,
		ValidArgsFunction: completeFirstTarget,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			if unset {
				if len(args) > 0 {
					return errors.New("--clear takes no target")
				}
				if err := svc.SetActive(nil); err != nil {
					return err
				}
				out.Println("Cleared active target")
				return nil
			}

			if len(args) == 0 {
				h, err := svc.Active()
				if err != nil {
					return err
				}
				if h == nil {
					out.Println("No active target")
					return nil
				}
				def, err := svc.Load(h)
				if err != nil {
					return err
				}
				out.Printf("%s (%s)\n", targetLabel(def), h.Memento())
				return nil
			}

			h, err := resolve.Ref(ctx, svc, args[0])
			if err != nil {
				return err
			}
			def, err := svc.Load(h)
			if err != nil {
				return err
			}
			// Target files reached by path are registered on activation.
			if err := register(svc, def); err != nil {
				return err
			}
			if err := svc.SetActive(h); err != nil {
				return err
			}
			out.Printf("Activated %s\n", targetLabel(def))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unset, "clear", false, "Unset the active target")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <target>...",
		Short:   "Delete target definitions",
		Aliases: []string{"rm"},
		GroupID: GroupTarget,
		Args:    cobra.MinimumNArgs(1),
		Long: `Delete targets.

Local targets are removed from the metadata directory. Target files are
only unregistered; the file itself is kept.`,
		Example: `  tp delete rcp           # Delete target 'rcp'
  tp delete old1 old2     # Delete several targets`,
		ValidArgsFunction: completeTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			for _, ref := range args {
				h, err := resolve.Ref(ctx, svc, ref)
				if err != nil {
					return err
				}
				if err := svc.Delete(h); err != nil {
					return err
				}
				if _, ok := h.(*target.FileHandle); ok {
					out.Printf("Unregistered %s (file kept: %s)\n", ref, h.Path())
				} else {
					out.Printf("Deleted %s\n", ref)
				}
			}
			return nil
		},
	}

	return cmd
}
