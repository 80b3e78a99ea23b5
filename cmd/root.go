package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "mods-enricher",
		Short: "Link MODS and emblem book metadata to authority vocabularies",
		Long: `mods-enricher resolves the free-text labels of MODS records (roles, subjects,
places, genres, languages, countries and personal names) to identifiers from
the Library of Congress vocabularies and VIAF, and writes them back as
authorityURI / valueURI attributes.

Every lookup attempt is recorded in an audit trail (CSV or Parquet) that the
report command summarizes.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	// Add subcommands
	cmd.AddCommand(newEnrichCmd(&configPath))
	cmd.AddCommand(newResolveCmd(&configPath))
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newServeCmd(&configPath))

	return cmd
}
