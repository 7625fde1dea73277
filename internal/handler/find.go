package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/service"
)

// FindHandler serves /v1/finds.
type FindHandler struct {
	finds   *service.FindService
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewFindHandler(finds *service.FindService, reviews *service.ReviewService, logger *slog.Logger) *FindHandler {
	return &FindHandler{finds: finds, reviews: reviews, logger: logger}
}

type findRequest struct {
	Title    *string   `json:"title"`
	URL      *string   `json:"url"`
	ImageURL *string   `json:"imageUrl"`
	Tags     *[]string `json:"tags"`
}

func findListParams(r *http.Request) (service.FindListParams, error) {
	page, err := pageParams(r)
	if err != nil {
		return service.FindListParams{}, err
	}
	q := r.URL.Query()
	return service.FindListParams{
		Page:       page,
		SearchTerm: q.Get("searchterm"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}, nil
}

// HandleList returns a page of finds.
//
// HTTP: GET /v1/finds?page=&limit=&searchterm=&sortBy=&sortOrder=
func (h *FindHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	params, err := findListParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	finds, err := h.finds.List(r.Context(), params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"finds": finds})
}

// HandleGet returns one find with its owner and tags.
//
// HTTP: GET /v1/finds/{id}
func (h *FindHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	find, err := h.finds.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"find": find})
}

// HandleCreate creates a find owned by the caller.
//
// HTTP: POST /v1/finds
// REQUEST BODY: {"title": "...", "url": "...", "imageUrl": "...", "tags": ["..."]}
func (h *FindHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req findRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	in := service.FindInput{URL: req.URL, ImageURL: req.ImageURL}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}

	find, err := h.finds.Create(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"find": find})
}

// HandleUpdate applies a partial update. Only fields present in the body
// change; "tags" replaces the whole tag set.
//
// HTTP: PATCH /v1/finds/{id}
func (h *FindHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req findRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	find, err := h.finds.Update(r.Context(), actor(r), id, service.FindUpdate{
		Title:    req.Title,
		URL:      req.URL,
		ImageURL: req.ImageURL,
		Tags:     req.Tags,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"find": find})
}

// HTTP: DELETE /v1/finds/{id}
func (h *FindHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.finds.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}

// HTTP: GET /v1/finds/{id}/reviews
func (h *FindHandler) HandleReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	reviews, err := h.reviews.ListByFind(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"reviews": reviews})
}

// HandleAttachTag adds a tag by name.
//
// HTTP: POST /v1/finds/{id}/tags
// REQUEST BODY: {"name": "jazz"}
func (h *FindHandler) HandleAttachTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tag, err := h.finds.AttachTag(r.Context(), actor(r), id, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"tag": tag})
}

// HTTP: DELETE /v1/finds/{id}/tags/{tagId}
func (h *FindHandler) HandleDetachTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	tagID, err := pathID(r, "tagId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.finds.DetachTag(r.Context(), actor(r), id, tagID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}
