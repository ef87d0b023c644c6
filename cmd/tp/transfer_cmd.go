package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/storage"
	"github.com/raphi011/tp/internal/target"
)

func newExportCmd() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:     "export [target]",
		Short:   "Write a target definition as XML",
		GroupID: GroupTarget,
		Args:    cobra.MaximumNArgs(1),
		Long: `Write a target definition in the .target XML format.

The definition is written to stdout, or to the file given with -o.`,
		Example: `  tp export rcp                  # Print XML
  tp export rcp -o rcp.target    # Write to file`,
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

			if outFile == "" {
				return target.Write(def, out.Writer())
			}

			var buf bytes.Buffer
			if err := target.Write(def, &buf); err != nil {
				return err
			}
			path := absPath(ctx, outFile)
			if err := storage.WriteAtomic(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			out.Printf("Exported %s to %s\n", targetLabel(def), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write to this file")
	cmd.MarkFlagFilename("output", target.FileExtension[1:])

	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		name string
		link bool
	)

	cmd := &cobra.Command{
		Use:     "import <file>",
		Short:   "Import a .target file",
		GroupID: GroupTarget,
		Args:    cobra.ExactArgs(1),
		Long: `Import a target definition file.

By default the file is copied into a new local target. With --link the
file itself is registered and later changes go to the file.`,
		Example: `  tp import rcp.target               # Copy into a local target
  tp import rcp.target --name rcp-2  # Copy under another name
  tp import rcp.target --link        # Register the file in place`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			path := absPath(ctx, args[0])

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			if link {
				def, err := svc.NewFileTarget(path)
				if err != nil {
					return err
				}
				if def, err = svc.Load(def.Handle()); err != nil {
					return err
				}
				def.Name = firstNonEmpty(name, def.Name, baseName(path))
				if err := register(svc, def); err != nil {
					return err
				}
				out.Printf("Registered %s (%s)\n", def.Name, def.Handle().Memento())
				return nil
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			src, err := target.Read(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			def := svc.NewTarget()
			if err := svc.Copy(src, def); err != nil {
				return err
			}
			def.Name = firstNonEmpty(name, src.Name, baseName(path))
			if err := svc.Save(def); err != nil {
				return err
			}
			out.Printf("Imported %s (%s)\n", def.Name, def.Handle().Memento())
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name of the imported target")
	cmd.Flags().BoolVar(&link, "link", false, "Register the file instead of copying it")

	return cmd
}

// baseName returns the file name of path without the target extension.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), target.FileExtension)
}
