// Package cmd provides the command-line interface for the greenstripes
// application.
//
// This package implements the root command and its subcommands using the
// cobra library. It loads configuration, sets up logging, builds the
// configured catalog backend and drives a greenstripes session for each
// command.
//
// The package integrates with several components:
//   - Configuration management through pkg/config
//   - The session SDK through internal/greenstripes
//   - Catalog backends through internal/catalog, internal/spotify and internal/cache
//   - Manual pages through pkg/man
//   - Version information through pkg/version
//
// Example usage:
//
//	import "github.com/toozej/greenstripes/cmd/greenstripes"
//
//	func main() {
//		cmd.Execute()
//	}
package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/greenstripes/pkg/config"
	"github.com/toozej/greenstripes/pkg/man"
	"github.com/toozej/greenstripes/pkg/version"
)

var (
	// conf holds the application configuration loaded from environment
	// variables, with command line overrides applied.
	conf config.Config
	// debug controls the logging level for the application.
	debug bool
	// backendName, catalogFile and metricsAddr override their configuration
	// values when set on the command line.
	backendName string
	catalogFile string
	metricsAddr string
	// noSpinner disables the wait spinner even on terminals.
	noSpinner bool
)

// rootCmd defines the base command for the greenstripes CLI application.
var rootCmd = &cobra.Command{
	Use:   "greenstripes",
	Short: "Browse a music catalog through an event driven session",
	Long: `greenstripes logs in to a music catalog and browses it: the user's playlists,
tracks, albums, artists and searches. It runs against a bundled demo catalog or,
after 'greenstripes login', against the Spotify Web API.`,
	Args:              cobra.ExactArgs(0),
	PersistentPreRunE: rootCmdPreRun,
	Run:               rootCmdRun,
	SilenceUsage:      true,
}

// rootCmdRun prints a short pointer to the subcommands.
func rootCmdRun(cmd *cobra.Command, args []string) {
	log.Info("Use 'greenstripes playlists' to list your playlists")
	log.Info("Use 'greenstripes search <query>' to search the catalog")
}

// rootCmdPreRun loads configuration, applies command line overrides and
// configures logging. It runs before the root command and every subcommand.
func rootCmdPreRun(cmd *cobra.Command, args []string) error {
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		loaded.Session.Backend = backendName
	}
	if flags.Changed("catalog") {
		loaded.Session.CatalogFile = catalogFile
	}
	if flags.Changed("metrics-addr") {
		loaded.Metrics.Address = metricsAddr
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	conf = loaded
	log.WithFields(log.Fields{
		"component": "cli",
		"backend":   conf.Session.Backend,
		"command":   cmd.Name(),
	}).Debug("Configuration loaded")
	return nil
}

// Execute starts the command-line interface execution.
//
// If command execution fails, it prints the error message and exits the
// program with status code 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug-level logging")
	flags.StringVarP(&backendName, "backend", "b", config.BackendCatalog, "Catalog backend: catalog or spotify")
	flags.StringVar(&catalogFile, "catalog", "", "JSON catalog file to use instead of the bundled demo catalog")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while the command runs")
	flags.BoolVar(&noSpinner, "no-spinner", false, "Never show the wait spinner")

	rootCmd.AddCommand(
		newLoginCmd(),
		newWhoamiCmd(),
		newPlaylistsCmd(),
		newSearchCmd(),
		newBrowseCmd(),
		newLinkCmd(),
		man.NewManCmd(),
		version.Command(),
	)
}
