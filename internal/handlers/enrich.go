package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/mods-enricher/internal/audit"
	"github.com/lehigh-university-libraries/mods-enricher/internal/enrich"
	"github.com/lehigh-university-libraries/mods-enricher/internal/mods"
)

type enrichResponse struct {
	Label      string         `json:"label"`
	Kind       mods.Kind      `json:"kind"`
	OutputName string         `json:"outputName"`
	RunID      string         `json:"runID"`
	Document   string         `json:"document"`
	Summary    *audit.Summary `json:"summary"`
	Records    []audit.Record `json:"records"`
}

// HandleEnrich annotates a posted MODS or spine document. The enriched XML is
// returned as is when the client accepts application/xml, otherwise wrapped
// in JSON together with the audit trail.
func (h *Handler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	label := strings.TrimSpace(r.URL.Query().Get("label"))
	if label == "" {
		label = "document"
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		h.writeError(w, "Failed to read document: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := mods.Parse(data)
	if err != nil {
		h.writeError(w, "Invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}

	_, records, err := h.orchestrator.Enrich(r.Context(), doc, label)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, mods.ErrMalformedDocument) {
			code = http.StatusBadRequest
		}
		h.writeError(w, "Failed to enrich document: "+err.Error(), code)
		return
	}

	out, err := doc.Bytes()
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/xml") {
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("X-Run-ID", h.orchestrator.RunID())
		if _, err := w.Write(out); err != nil {
			h.writeError(w, "Unable to write document", http.StatusInternalServerError)
		}
		return
	}

	kind := doc.Kind()
	h.writeJSON(w, enrichResponse{
		Label:      label,
		Kind:       kind,
		OutputName: enrich.OutputName(label, kind),
		RunID:      h.orchestrator.RunID(),
		Document:   string(out),
		Summary:    audit.Summarize(records),
		Records:    records,
	})
}
