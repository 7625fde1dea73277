package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/service"
)

// TagHandler serves /v1/tags.
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger}
}

// HandleList returns all tags, or a substring search when ?search= or
// ?name= is given.
//
// HTTP: GET /v1/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		search = r.URL.Query().Get("name")
	}
	tags, err := h.tags.List(r.Context(), search)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"tags": tags})
}

// HTTP: GET /v1/tags/{id}
func (h *TagHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tag, err := h.tags.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"tag": tag})
}

// HTTP: GET /v1/tags/name/{name}
func (h *TagHandler) HandleGetByName(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tags.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"tag": tag})
}

// HTTP: DELETE /v1/tags/{id}
func (h *TagHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.tags.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}
