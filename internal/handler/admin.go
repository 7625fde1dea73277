package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/service"
)

// EmojiHandler serves /v1/emoji.
type EmojiHandler struct {
	emoji  *service.EmojiService
	logger *slog.Logger
}

func NewEmojiHandler(emoji *service.EmojiService, logger *slog.Logger) *EmojiHandler {
	return &EmojiHandler{emoji: emoji, logger: logger}
}

// HTTP: GET /v1/emoji
func (h *EmojiHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	emoji, err := h.emoji.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"emoji": emoji})
}

// HTTP: POST /v1/emoji
// REQUEST BODY: {"name": "party_parrot", "imageUrl": "https://..."}
func (h *EmojiHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		ImageURL string `json:"imageUrl"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	emoji, err := h.emoji.Create(r.Context(), actor(r), service.EmojiInput{Name: req.Name, ImageURL: req.ImageURL})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"emoji": emoji})
}

// HTTP: DELETE /v1/emoji/{id}
func (h *EmojiHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.emoji.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}

// LogHandler serves the admin-only audit log.
type LogHandler struct {
	logs   *service.LogService
	logger *slog.Logger
}

func NewLogHandler(logs *service.LogService, logger *slog.Logger) *LogHandler {
	return &LogHandler{logs: logs, logger: logger}
}

// HTTP: GET /v1/logs?page=&limit=
func (h *LogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	logs, err := h.logs.List(r.Context(), actor(r), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"logs": logs})
}

// HTTP: GET /v1/logs/{id}
func (h *LogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	entry, err := h.logs.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"log": entry})
}
