package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/registry"
	"github.com/raphi011/tp/internal/target"
)

func newNewCmd() *cobra.Command {
	var (
		file        string
		description string
		osFlag      string
		ws          string
		arch        string
		nl          string
		programArgs string
		vmArgs      string
		activate    bool
	)

	cmd := &cobra.Command{
		Use:     "new <name>",
		Short:   "Create a target definition",
		GroupID: GroupTarget,
		Args:    cobra.ExactArgs(1),
		Long: `Create an empty target definition.

The target is stored in the metadata directory unless --file names a
target file. Environment values default to the [environment] section of
the config; values left empty mean the running platform.`,
		Example: `  tp new rcp                          # Local target
  tp new rcp --file rcp.target        # Target stored in a file
  tp new rcp --os win32 --arch x86_64 # Explicit environment
  tp new rcp --activate               # Create and make active`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			out := output.FromContext(ctx)
			l := log.FromContext(ctx)
			name := args[0]

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			reg, err := registry.Load(svc.MetadataDir())
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			if _, err := reg.Find(name); err == nil {
				return fmt.Errorf("target %q already exists", name)
			}

			def := svc.NewTarget()
			if file != "" {
				path := absPath(ctx, file)
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("file already exists: %s (use 'tp import' to register it)", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				if def, err = svc.NewFileTarget(path); err != nil {
					return err
				}
			}

			def.Name = name
			def.Description = description
			def.OS = firstNonEmpty(osFlag, cfg.Environment.OS)
			def.WS = firstNonEmpty(ws, cfg.Environment.WS)
			def.Arch = firstNonEmpty(arch, cfg.Environment.Arch)
			def.NL = firstNonEmpty(nl, cfg.Environment.NL)
			def.ProgramArgs = programArgs
			def.VMArgs = vmArgs

			if err := config.ValidateEnvironment(def.OS, def.WS, def.Arch); err != nil {
				return err
			}

			if err := svc.Save(def); err != nil {
				return err
			}
			l.Debug("target created", "name", name, "memento", def.Handle().Memento())

			if activate {
				if err := svc.SetActive(def.Handle()); err != nil {
					return err
				}
			}

			out.Printf("Created target %s (%s)\n", name, def.Handle().Memento())
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Store the target in this file")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Target description")
	cmd.Flags().StringVar(&osFlag, "os", "", "Target operating system")
	cmd.Flags().StringVar(&ws, "ws", "", "Target windowing system")
	cmd.Flags().StringVar(&arch, "arch", "", "Target architecture")
	cmd.Flags().StringVar(&nl, "nl", "", "Target locale")
	cmd.Flags().StringVar(&programArgs, "program-args", "", "Program arguments for launches")
	cmd.Flags().StringVar(&vmArgs, "vm-args", "", "VM arguments for launches")
	cmd.Flags().BoolVarP(&activate, "activate", "a", false, "Make the new target active")

	cmd.RegisterFlagCompletionFunc("os", fixedCompletion(config.ValidOS))
	cmd.RegisterFlagCompletionFunc("ws", fixedCompletion(config.ValidWS))
	cmd.RegisterFlagCompletionFunc("arch", fixedCompletion(config.ValidArch))
	cmd.MarkFlagFilename("file", target.FileExtension[1:])

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// fixedCompletion completes from a fixed list of values.
func fixedCompletion(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
