package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/service"
)

// ReviewHandler serves /v1/reviews.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

type reviewRequest struct {
	FindID  int64         `json:"findId"`
	Rating  *model.Rating `json:"rating"`
	Content *string       `json:"content"`
}

// HTTP: GET /v1/reviews?page=&limit=
func (h *ReviewHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	reviews, err := h.reviews.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"reviews": reviews})
}

// HTTP: GET /v1/reviews/{id}
func (h *ReviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	review, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"review": review})
}

// HandleCreate reviews a find.
//
// HTTP: POST /v1/reviews
// REQUEST BODY: {"findId": 1, "rating": "good|neutral|bad", "content": "..."}
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := service.ReviewInput{FindID: req.FindID, Content: req.Content}
	if req.Rating != nil {
		in.Rating = *req.Rating
	}
	review, err := h.reviews.Create(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"review": review})
}

// HTTP: PATCH /v1/reviews/{id}
func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	review, err := h.reviews.Update(r.Context(), actor(r), id, service.ReviewUpdate{
		Rating:  req.Rating,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"review": review})
}

// HTTP: DELETE /v1/reviews/{id}
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.reviews.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}
