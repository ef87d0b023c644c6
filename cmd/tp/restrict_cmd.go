package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/bundle"
	"github.com/raphi011/tp/internal/output"
)

func newRestrictCmd() *cobra.Command {
	var (
		targetRef string
		optional  bool
		unset     bool
	)

	cmd := &cobra.Command{
		Use:     "restrict <index> [bundle[@version]]...",
		Short:   "Limit a location to named bundles",
		GroupID: GroupLocation,
		Args:    cobra.MinimumNArgs(1),
		Long: `Limit a location to the named bundles.

Each restriction names a bundle by symbolic name and optionally an exact
version; without a version the newest bundle is used. Restricted bundles
missing from the location are reported when resolving, unless --optional
is given.

Without bundle arguments the restrictions are read from stdin, one per
line, when stdin is not a terminal; otherwise the current restrictions
are printed. Restrictions replace the previous ones.`,
		Example: `  tp restrict 1 org.eclipse.core.runtime org.eclipse.osgi@3.18.0
  tp restrict 2 org.junit --optional
  tp restrict 1 < bundles.txt
  tp restrict 1 --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}
			def, err := loadTarget(ctx, svc, targetRef)
			if err != nil {
				return err
			}
			i, err := parseIndex(def, args[0])
			if err != nil {
				return err
			}
			c := def.Containers[i]

			specs := args[1:]
			if len(specs) == 0 && !unset {
				in := cmd.InOrStdin()
				if isTerminal(in) {
					printRestrictions(out, c.Restrictions())
					return nil
				}
				if specs, err = readLines(in); err != nil {
					return err
				}
			}

			var restrictions []bundle.Restriction
			if !unset {
				for _, s := range specs {
					r, err := parseRestriction(s, optional)
					if err != nil {
						return err
					}
					restrictions = append(restrictions, r)
				}
			}

			c.SetRestrictions(restrictions)
			if err := svc.Save(def); err != nil {
				return err
			}
			if len(restrictions) == 0 {
				out.Printf("Location %d of %s is unrestricted\n", i+1, targetLabel(def))
			} else {
				out.Printf("Restricted location %d of %s to %d bundles\n", i+1, targetLabel(def), len(restrictions))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetRef, "target", "t", "", "Target to edit (default: project or active target)")
	cmd.Flags().BoolVar(&optional, "optional", false, "Do not report missing bundles")
	cmd.Flags().BoolVar(&unset, "clear", false, "Remove all restrictions")
	cmd.RegisterFlagCompletionFunc("target", completeTargets)

	return cmd
}

func printRestrictions(out *output.Printer, restrictions []bundle.Restriction) {
	if len(restrictions) == 0 {
		out.Println("(unrestricted)")
		return
	}
	for _, r := range restrictions {
		out.Println(r.String())
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// readLines returns the non-empty lines of r, skipping # comments.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}
