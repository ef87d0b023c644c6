package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/target"
)

func newClasspathCmd() *cobra.Command {
	var (
		copyOut   bool
		separator string
		lines     bool
	)

	cmd := &cobra.Command{
		Use:     "classpath [target]",
		Short:   "Print the classpath of a target",
		Aliases: []string{"cp"},
		GroupID: GroupResolve,
		Args:    cobra.MaximumNArgs(1),
		Long: `Print the locations of the code bundles of a target.

Bundles with problems are left out. Entries are joined with the path list
separator of the running platform unless --separator or --lines is given.`,
		Example: `  tp classpath                 # Active target
  tp classpath rcp --lines     # One entry per line
  tp classpath rcp --copy      # Copy to the clipboard`,
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
			res := resolveOne(ctx, def, false)
			if res.err != nil {
				return res.err
			}

			sep := separator
			if lines {
				sep = "\n"
			}
			cp := strings.Join(target.Classpath(res.bundles), sep)

			if copyOut {
				if err := clipboard.WriteAll(cp); err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}
				log.FromContext(ctx).Printf("Copied classpath of %s to clipboard", res.label)
				return nil
			}
			out.Println(cp)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "Copy to the clipboard instead of printing")
	cmd.Flags().StringVar(&separator, "separator", string(os.PathListSeparator), "Entry separator")
	cmd.Flags().BoolVar(&lines, "lines", false, "One entry per line")
	cmd.MarkFlagsMutuallyExclusive("separator", "lines")

	return cmd
}
