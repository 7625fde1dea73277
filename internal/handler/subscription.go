package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/service"
)

// SubscriptionHandler serves subscriptions and the caller's notification inbox.
type SubscriptionHandler struct {
	subs   *service.SubscriptionService
	logger *slog.Logger
}

func NewSubscriptionHandler(subs *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, logger: logger}
}

// HTTP: GET /v1/me/subscriptions
func (h *SubscriptionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subs.ListMine(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"subscriptions": subs})
}

// HandleCreate subscribes the caller. Subscribing twice returns the
// existing subscription.
//
// HTTP: POST /v1/subscriptions
// REQUEST BODY: {"target": "find|review|tag|user|list|list_changes", "targetId": 1}
func (h *SubscriptionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target   model.SubscriptionTarget `json:"target"`
		TargetID int64                    `json:"targetId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	sub, err := h.subs.Subscribe(r.Context(), actor(r), req.Target, req.TargetID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"subscription": sub})
}

// HTTP: DELETE /v1/subscriptions/{id}
func (h *SubscriptionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.subs.Unsubscribe(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}

// HTTP: GET /v1/me/notifications?page=&limit=
func (h *SubscriptionHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	notifications, err := h.subs.Notifications(r.Context(), actor(r), page)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"notifications": notifications})
}

// HTTP: POST /v1/me/notifications/{id}/read
func (h *SubscriptionHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.subs.MarkRead(r.Context(), actor(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeSuccess(w)
}
