package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// configPath is shared by the commands that load barista.yml.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "barista",
	Short: "Barista - blackboard-driven coffee assistant",
	Long: `Barista is a conversational coffee assistant built on a blackboard
architecture: specialist agents (intent router, sommelier, master brewer,
coffee doctor) coordinate through a shared Redis-backed knowledge store.

The doctor diagnoses taste problems with a rule table, certainty factors and
fuzzy temperature logic; the brewer resolves recipes and adapts them for
unknown beans with case-based reasoning; the sommelier scores beans against
weighted taste preferences.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is specified, show help
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "barista.yml", "Path to the configuration file")
}
