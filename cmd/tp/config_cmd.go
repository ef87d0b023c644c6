package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/storage"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage tp configuration.

Global config: ~/.config/tp/config.toml
Local config:  .tp.toml (in a project directory or any parent)`,
		Example: `  tp config init          # Create default global config
  tp config init --local  # Create project config
  tp config show          # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force  bool
		stdout bool
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Long: `Create default config file.

Without flags, creates the global config at ~/.config/tp/config.toml.
With --local, creates .tp.toml in the current directory.`,
		Example: `  tp config init           # Create global config
  tp config init --local   # Create project config
  tp config init -f        # Overwrite existing config
  tp config init -s        # Print config to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if local {
				if stdout {
					out.Print(config.DefaultLocalConfig())
					return nil
				}
				path := filepath.Join(config.WorkDirFromContext(cmd.Context()), config.LocalConfigFileName)
				if !force {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("local config already exists: %s (use -f to overwrite)", path)
					}
				}
				if err := storage.WriteAtomic(path, []byte(config.DefaultLocalConfig()), 0o644); err != nil {
					return err
				}
				out.Printf("Created local config: %s\n", path)
				return nil
			}

			if stdout {
				out.Print(config.DefaultConfig())
				return nil
			}
			path, err := config.Init(force)
			if err != nil {
				return fmt.Errorf("%w (use -f to overwrite)", err)
			}
			out.Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")
	cmd.Flags().BoolVar(&local, "local", false, "Create project .tp.toml instead of global config")

	return cmd
}

// configView is the --json/--yaml form of the effective config.
type configView struct {
	ConfigFile   string            `json:"configFile,omitempty" yaml:"configFile,omitempty"`
	LocalFile    string            `json:"localFile,omitempty" yaml:"localFile,omitempty"`
	Target       string            `json:"target,omitempty" yaml:"target,omitempty"`
	MetadataDir  string            `json:"metadataDir" yaml:"metadataDir"`
	BundlePool   string            `json:"bundlePool,omitempty" yaml:"bundlePool,omitempty"`
	Repositories []string          `json:"repositories,omitempty" yaml:"repositories,omitempty"`
	Variables    map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Environment  map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
	Parallel     int               `json:"parallel" yaml:"parallel"`
	Theme        string            `json:"theme,omitempty" yaml:"theme,omitempty"`
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOut bool
		yamlOut bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Show the effective configuration: the global config merged with the
nearest .tp.toml and environment overrides.`,
		Example: `  tp config show          # Show as TOML
  tp config show --json   # Output as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			out := output.FromContext(ctx)

			svc, err := newService(ctx)
			if err != nil {
				return err
			}

			configFile, _ := config.Path()
			localFile := ""
			if dir := config.FindLocal(config.WorkDirFromContext(ctx)); dir != "" {
				localFile = filepath.Join(dir, config.LocalConfigFileName)
			}

			if f := formatOf(jsonOut, yamlOut); f != output.FormatText {
				env := map[string]string{}
				for k, v := range map[string]string{"os": cfg.Environment.OS, "ws": cfg.Environment.WS, "arch": cfg.Environment.Arch, "nl": cfg.Environment.NL} {
					if v != "" {
						env[k] = v
					}
				}
				return out.Encode(f, configView{
					ConfigFile:   configFile,
					LocalFile:    localFile,
					Target:       cfg.Target,
					MetadataDir:  svc.MetadataDir(),
					BundlePool:   svc.BundlePool(),
					Repositories: cfg.Repositories,
					Variables:    cfg.Variables,
					Environment:  env,
					Parallel:     cfg.Resolve.Parallel,
					Theme:        cfg.Theme.Name,
				})
			}

			out.Printf("# global: %s\n", configFile)
			if localFile != "" {
				out.Printf("# local:  %s\n", localFile)
			}
			if cfg.Target != "" {
				out.Printf("# target: %s\n", cfg.Target)
			}
			out.Println()

			eff := *cfg
			eff.MetadataDir = svc.MetadataDir()
			eff.BundlePool = svc.BundlePool()
			return toml.NewEncoder(out.Writer()).Encode(eff)
		},
	}

	addFormatFlags(cmd, &jsonOut, &yamlOut)

	return cmd
}
