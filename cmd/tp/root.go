package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/tp/internal/config"
	"github.com/raphi011/tp/internal/log"
	"github.com/raphi011/tp/internal/output"
	"github.com/raphi011/tp/internal/ui/styles"
)

var (
	// Global flags
	verbose bool
	quiet   bool
)

// Command group IDs for organizing help output
const (
	GroupTarget   = "target"
	GroupLocation = "location"
	GroupResolve  = "resolve"
	GroupConfig   = "config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tp",
	Short: "Target platform resolver for OSGi bundles",
	Long: `tp manages target platform definitions and resolves them into bundles.

A target lists locations bundles come from: directories of bundles,
features of an installation, whole installations, and installable units
provisioned from repositories. Resolving a target yields its bundles,
classified as code, source, fragment or optional, and a classpath.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Create logger once flags are parsed (stderr for diagnostics)
		cmd.SetContext(log.WithLogger(cmd.Context(), log.New(os.Stderr, verbose, quiet)))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	workDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tp: failed to get working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	styles.Init(cfg.Theme)

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = config.WithConfig(ctx, cfg)
	ctx = config.WithWorkDir(ctx, workDir)
	ctx = output.WithPrinter(ctx, os.Stdout)

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("Error:"), err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'tp -h' for help")
		os.Exit(1)
	}
}

// loadConfig reads the global config and merges the nearest .tp.toml.
// On error the returned config holds defaults.
func loadConfig(workDir string) (*config.Config, error) {
	global, err := config.Load()
	if err != nil {
		def := config.Default()
		return &def, err
	}
	dir := config.FindLocal(workDir)
	if dir == "" {
		return &global, nil
	}
	local, err := config.LoadLocal(dir)
	if err != nil {
		return &global, err
	}
	return config.MergeLocal(&global, local), nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show resolution steps and timings")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupTarget, Title: "Target Commands:"},
		&cobra.Group{ID: GroupLocation, Title: "Location Commands:"},
		&cobra.Group{ID: GroupResolve, Title: "Resolution Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Target commands
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newActivateCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newLabelCmd())

	// Location commands
	rootCmd.AddCommand(newLocationCmd())
	rootCmd.AddCommand(newRestrictCmd())

	// Resolution commands
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newClasspathCmd())

	// Config commands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newCompletionCmd())
}
