package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var opts doctor.Options

	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Diagnose and repair issues",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Diagnose and repair target and bundle pool issues.

Checks:
- Registered targets exist and parse
- Directory, feature and profile locations exist
- Bundle pool index entries have their artifact
- With --resolve: bundles of every target resolve without problems

--fix unregisters missing targets and prunes stale pool entries.`,
		Example: `  tp doctor              # Check for issues
  tp doctor --resolve    # Also resolve every target
  tp doctor --fix        # Auto-fix recoverable issues`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := newService(ctx)
			if err != nil {
				return err
			}
			return doctor.Run(ctx, svc, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "Auto-fix recoverable issues")
	cmd.Flags().BoolVar(&opts.Resolve, "resolve", false, "Resolve targets to check bundles")

	return cmd
}
