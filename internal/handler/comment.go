package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/service"
)

// CommentHandler serves the comments sub-resource of one target kind, e.g.
// /v1/finds/{id}/comments. One instance is mounted per target.
type CommentHandler struct {
	comments *service.CommentService
	target   model.CommentTarget
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, target model.CommentTarget, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, target: target, logger: logger}
}

// HTTP: GET /v1/{targets}/{id}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	comments, err := h.comments.List(r.Context(), actor(r), h.target, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"comments": comments})
}

// HTTP: POST /v1/{targets}/{id}/comments
// REQUEST BODY: {"content": "..."}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	comment, err := h.comments.Create(r.Context(), actor(r), h.target, id, req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"comment": comment})
}

// HTTP: DELETE /v1/{targets}/{id}/comments/{commentId}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.comments.Delete(r.Context(), actor(r), h.target, id, commentID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}
