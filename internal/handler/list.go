package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/service"
)

// ListHandler serves /v1/lists.
type ListHandler struct {
	lists  *service.ListService
	logger *slog.Logger
}

func NewListHandler(lists *service.ListService, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: lists, logger: logger}
}

type listRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Collaborative *bool   `json:"collaborative"`
	Private       *bool   `json:"private"`
}

// HTTP: GET /v1/lists?page=&limit=
func (h *ListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lists, err := h.lists.ListPublic(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"lists": lists})
}

// HTTP: GET /v1/lists/{id}
func (h *ListHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.lists.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"list": list})
}

// HTTP: POST /v1/lists
func (h *ListHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	in := service.ListInput{Description: req.Description}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Collaborative != nil {
		in.Collaborative = *req.Collaborative
	}
	if req.Private != nil {
		in.Private = *req.Private
	}
	list, err := h.lists.Create(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"list": list})
}

// HTTP: PATCH /v1/lists/{id}
func (h *ListHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	list, err := h.lists.Update(r.Context(), actor(r), id, service.ListUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Collaborative: req.Collaborative,
		Private:       req.Private,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"list": list})
}

// HTTP: DELETE /v1/lists/{id}
func (h *ListHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.lists.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}

// HandleAddItem puts a find into a list.
//
// HTTP: POST /v1/lists/{id}/items
// REQUEST BODY: {"findId": 1}
func (h *ListHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req struct {
		FindID int64 `json:"findId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	item, err := h.lists.AddItem(r.Context(), actor(r), id, req.FindID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"item": item})
}

// HTTP: DELETE /v1/lists/{id}/items/{findId}
func (h *ListHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	findID, err := pathID(r, "findId")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.lists.RemoveItem(r.Context(), actor(r), id, findID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}
