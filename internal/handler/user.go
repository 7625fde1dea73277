package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/service"
)

// UserHandler serves /v1/users and /v1/me.
type UserHandler struct {
	users  *service.UserService
	finds  *service.FindService
	lists  *service.ListService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, finds *service.FindService, lists *service.ListService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, finds: finds, lists: lists, logger: logger}
}

// HTTP: GET /v1/users?page=&limit=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	users, err := h.users.List(r.Context(), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"users": users})
}

// HandleGet returns a user. Email and login timestamps are only included
// when callers look themselves up.
//
// HTTP: GET /v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// HTTP: GET /v1/users/{id}/finds
func (h *UserHandler) HandleFinds(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	params, err := findListParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	finds, err := h.finds.ListByUser(r.Context(), id, params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"finds": finds})
}

// HTTP: GET /v1/users/{id}/lists
func (h *UserHandler) HandleLists(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	lists, err := h.lists.ListByUser(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"lists": lists})
}

// HTTP: GET /v1/users/{id}/stats
func (h *UserHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	stats, err := h.users.Stats(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": stats})
}

// HTTP: POST /v1/users/{id}/admin
func (h *UserHandler) HandleGrantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.users.GrantAdmin(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"user": user})
}

// HTTP: DELETE /v1/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.users.Delete(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}

// HandleMe returns the caller's own record without an envelope.
//
// HTTP: GET /v1/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
