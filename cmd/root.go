// Package cmd provides the CLI commands for the zenpath application.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xvierd/zenpath/internal/adapters/tui"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	configPath  string
	catalogPath string
	backendFlag string
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "zenpath",
	Short: "zenpath - guided meditation player and sharing timer",
	Long: `zenpath plays guided meditation tracks and times the spoken sharing
that follows them. When a track ends, the sharing timer opens by itself.

Run "zenpath" with no arguments to open the home screen.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(nil)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.zenpath/config.toml)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Track catalog file (.yaml, .json or .db); overrides catalog.path")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Media backend: ffplay or simulated; overrides media.backend")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error; overrides log.level")

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("zenpath\nVersion: {{.Version}}\nBuilt: %s\nCommit: %s\n", BuildDate, GitCommit))
}

// runSession starts a session, applies setup to it, and runs the terminal
// interface until the user quits or a signal arrives.
func runSession(setup func() error) error {
	if err := startSession(); err != nil {
		return err
	}
	if setup != nil {
		if err := setup(); err != nil {
			return err
		}
	}

	ctx := setupSignalHandler()
	program := tui.NewProgram(app.machine, tuiOptions())
	return program.Run(ctx)
}

func tuiOptions() tui.Options {
	return tui.Options{
		Theme:      &app.config.Theme,
		ShowQuotes: app.config.Timer.ShowQuotes,
		Captions:   app.captions,
		Search:     searchCatalog,
		Logger:     app.logger,
	}
}
