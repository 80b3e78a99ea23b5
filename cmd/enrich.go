package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mods-enricher/internal/audit"
	"github.com/lehigh-university-libraries/mods-enricher/internal/config"
	"github.com/lehigh-university-libraries/mods-enricher/internal/enrich"
	"github.com/lehigh-university-libraries/mods-enricher/internal/source"
)

func newEnrichCmd(configPath *string) *cobra.Command {
	var outputDir string
	var auditPath string
	var concurrency int
	var cache string
	var upgradeSchema bool

	cmd := &cobra.Command{
		Use:   "enrich [inputs...]",
		Short: "Resolve authority identifiers for MODS and spine documents",
		Long: `Reads MODS or emblem book (spine) documents, resolves their terms against the
configured vocabularies and writes the annotated documents to the output
directory as <label>_spine.xml, <label>_mods.xml or <label>.xml.

Inputs may be files, directories, glob patterns (** supported), http(s) URLs,
or list files (.txt with one location per line, .json with a "urlList" array).`,
		Example: `  # Enrich every XML file below a directory
  mods-enricher enrich ./books --output-dir ./enriched

  # Enrich a URL list with four documents in flight and a persistent cache
  mods-enricher enrich sources.json --concurrency 4 --cache lookups.db

  # Write the audit trail as Parquet and upgrade to MODS 3.7
  mods-enricher enrich 'books/**/*.xml' --audit audit.parquet --upgrade-schema`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(*configPath, func(c *config.Config) {
				if cmd.Flags().Changed("concurrency") {
					c.Concurrency = concurrency
				}
				if cmd.Flags().Changed("cache") {
					c.Cache = cache
				}
			})
			if err != nil {
				return err
			}
			defer s.Close()

			loader := source.NewLoader(&http.Client{Timeout: s.cfg.HTTPTimeout})
			sources, err := loader.Expand(args)
			if err != nil {
				return fmt.Errorf("failed to expand inputs: %w", err)
			}
			if len(sources) == 0 {
				return fmt.Errorf("no documents found in %v", args)
			}

			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			orch := enrich.New(s.resolver,
				enrich.WithLoader(loader),
				enrich.WithSchemaUpgrade(upgradeSchema),
			)
			results := orch.EnrichBatch(cmd.Context(), sources, s.cfg.Concurrency)

			var records []audit.Record
			failed := 0
			for _, res := range results {
				records = append(records, res.Records...)
				if res.Err != nil {
					failed++
					continue
				}
				out := filepath.Join(outputDir, res.OutputName())
				if err := os.WriteFile(out, res.Output, 0644); err != nil {
					slog.Error("Failed to write document", "label", res.Source.Label, "path", out, "err", err)
					failed++
					continue
				}
				slog.Info("Wrote document", "label", res.Source.Label, "path", out, "attempts", len(res.Records), "duration", res.Duration)
			}

			if err := audit.WriteFile(auditPath, records); err != nil {
				return fmt.Errorf("failed to write audit trail: %w", err)
			}

			summary := audit.Summarize(records)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Documents: %d (%d failed)\n", len(results), failed)
			fmt.Fprintf(out, "Lookups:   %d attempted, %d resolved (%.1f%%)\n", summary.Attempts, summary.Resolved, summary.ResolutionRate*100)
			fmt.Fprintf(out, "Run:       %s\n", orch.RunID())
			fmt.Fprintf(out, "\nAudit trail saved to: %s\n", auditPath)
			fmt.Fprintf(out, "  mods-enricher report %s\n", auditPath)

			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "enriched", "Directory for enriched documents")
	cmd.Flags().StringVar(&auditPath, "audit", "audit.csv", "Audit trail path (.csv or .parquet)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Documents processed in parallel")
	cmd.Flags().StringVar(&cache, "cache", "", "Lookup cache: memory, a SQLite file path, or empty to disable")
	cmd.Flags().BoolVar(&upgradeSchema, "upgrade-schema", false, "Set MODS version 3.7 and schema locations")

	return cmd
}
