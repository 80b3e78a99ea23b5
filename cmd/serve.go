package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/mods-enricher/internal/config"
	"github.com/lehigh-university-libraries/mods-enricher/internal/enrich"
	"github.com/lehigh-university-libraries/mods-enricher/internal/handlers"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port string
	var cache string
	var upgradeSchema bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the enrichment API",
		Long: `Serves document enrichment and single-term resolution over HTTP.

  POST /api/enrich?label=<label>      enrich a posted MODS or spine document
  GET  /api/resolve?domain=&term=     resolve one term
  GET  /api/vocabularies              list configured vocabularies
  GET  /metrics                       Prometheus metrics`,
		Example: `  # Start server on default port 8888 with an in-memory lookup cache
  mods-enricher serve

  # Start server on custom port with a persistent cache
  mods-enricher serve --port 3000 --cache lookups.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(*configPath, func(c *config.Config) {
				if cmd.Flags().Changed("cache") || c.Cache == "" {
					c.Cache = cache
				}
			})
			if err != nil {
				return err
			}
			defer s.Close()

			orch := enrich.New(s.resolver, enrich.WithSchemaUpgrade(upgradeSchema))
			handler := handlers.New(s.resolver, orch, s.registry)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/enrich", handler.HandleEnrich)
			mux.HandleFunc("/api/resolve", handler.HandleResolve)
			mux.HandleFunc("/api/vocabularies", handler.HandleVocabularies)
			mux.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Enrichment API available", "addr", addr, "url", "http://localhost"+addr, "run", orch.RunID())
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&cache, "cache", "memory", "Lookup cache: memory, a SQLite file path, or none")
	cmd.Flags().BoolVar(&upgradeSchema, "upgrade-schema", false, "Set MODS version 3.7 and schema locations")

	return cmd
}
