package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/mods-enricher/internal/annotate"
	"github.com/lehigh-university-libraries/mods-enricher/internal/enrich"
	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

// maxDocumentBytes bounds the size of a posted document
const maxDocumentBytes = 32 << 20

type Handler struct {
	resolver     annotate.Resolver
	orchestrator *enrich.Orchestrator
	registry     *vocabulary.Registry
}

func New(resolver annotate.Resolver, orchestrator *enrich.Orchestrator, registry *vocabulary.Registry) *Handler {
	return &Handler{
		resolver:     resolver,
		orchestrator: orchestrator,
		registry:     registry,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
