package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/preview"
	"github.com/sakif/findsboard/internal/service"
)

// Version is reported by GET /v1.
const Version = "1.0.1"

// SiteHandler serves the endpoints that are not tied to one resource:
// the version index, cross-entity search, site statistics and link
// previews.
type SiteHandler struct {
	search  *service.SearchService
	preview preview.Previewer
	logger  *slog.Logger
}

func NewSiteHandler(search *service.SearchService, previewer preview.Previewer, logger *slog.Logger) *SiteHandler {
	return &SiteHandler{search: search, preview: previewer, logger: logger}
}

// HTTP: GET /v1
func (h *SiteHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"version": Version})
}

// HandleSearch matches a term against finds, reviews, tags and users.
//
// HTTP: GET /v1/search?searchterm=&limit=
func (h *SiteHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	results, err := h.search.Search(r.Context(), r.URL.Query().Get("searchterm"), limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HTTP: GET /v1/stats
func (h *SiteHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.search.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"stats": stats})
}

// HandleURLPreview fetches a page and returns its link card metadata.
//
// HTTP: GET /v1/util/urlPreview?url=
func (h *SiteHandler) HandleURLPreview(w http.ResponseWriter, r *http.Request) {
	p, err := h.preview.Preview(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"preview": p})
}
