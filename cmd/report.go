package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mods-enricher/internal/audit"
)

func newReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report <audit-file>",
		Short: "Summarize an audit trail",
		Long: `Reads an audit trail written by enrich (.csv or .parquet) and prints resolution
statistics per vocabulary and per resolution method, followed by every
attempted lookup.`,
		Example: `  mods-enricher report audit.csv
  mods-enricher report audit.parquet --format json
  mods-enricher report audit.parquet --format csv > audit.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := audit.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to load audit trail: %w", err)
			}
			return audit.Render(cmd.OutOrStdout(), format, records)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, csv, or yaml)")

	return cmd
}
