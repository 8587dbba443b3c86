// Package cli implements the readalong command line: the HTTP server, book
// import, and a terminal reader.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/hanyong5/2025book/internal/config"
	"github.com/hanyong5/2025book/internal/entrypoint"
)

var (
	verbose      bool
	databasePath string
	version      = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "readalong",
	Short: "Audio-synchronized picture book reader",
	Long: `Readalong serves illustrated books whose captions are highlighted in time
with recorded narration, advancing through the pages on its own.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute(v string) error {
	version = v
	rootCmd.Version = v
	return rootCmd.Execute()
}

// loadConfig reads the environment and applies persistent flag overrides.
func loadConfig() *config.Config {
	cfg := config.NewConfig()
	if databasePath != "" {
		cfg.Database.Path = databasePath
	}
	if verbose {
		cfg.Database.Debug = true
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	return entrypoint.Run(loadConfig(), version)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default if no command given)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output and SQL logging")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "path to the content database (default: $DATABASE_PATH or "+config.DefaultDatabasePath+")")

	rootCmd.AddCommand(serveCmd)
}
