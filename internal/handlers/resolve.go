package handlers

import (
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/mods-enricher/internal/vocabulary"
)

type vocabularyInfo struct {
	Domain       vocabulary.Domain `json:"domain"`
	Shape        vocabulary.Shape  `json:"shape"`
	AuthorityURI string            `json:"authorityURI"`
	QueryURL     string            `json:"queryURL,omitempty"`
	Entries      int               `json:"dictionaryEntries"`
}

// HandleResolve resolves a single term: GET /api/resolve?domain=role&term=creator
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	domain, err := vocabulary.ParseDomain(r.URL.Query().Get("domain"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	term := strings.TrimSpace(r.URL.Query().Get("term"))
	if term == "" {
		h.writeError(w, "term is required", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, h.resolver.Resolve(r.Context(), domain, term))
}

// HandleVocabularies lists the configured vocabularies
func (h *Handler) HandleVocabularies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	domains := h.registry.Domains()
	list := make([]vocabularyInfo, 0, len(domains))
	for _, d := range domains {
		v, _ := h.registry.Get(d)
		list = append(list, vocabularyInfo{
			Domain:       d,
			Shape:        v.Shape(),
			AuthorityURI: v.AuthorityURI(),
			QueryURL:     v.QueryURL(),
			Entries:      v.Len(),
		})
	}
	h.writeJSON(w, list)
}
