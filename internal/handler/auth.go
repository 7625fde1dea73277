package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/findsboard/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler drives the Discord login flow for one or more client targets
// (the web app and the mobile app).
//
// HANDLER RESPONSIBILITIES:
//   - HandleBegin    → redirect the browser to Discord's authorization page
//   - HandleCallback → hand the callback to LoginService and follow its redirect
//
// Every outcome of a callback, success or rejection, ends in a redirect to
// the target's client URI with either ?token= or ?error=&code= attached. The
// only JSON error is a 404 for a target that is not configured.
type AuthHandler struct {
	login  *service.LoginService
	logger *slog.Logger
}

func NewAuthHandler(login *service.LoginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{login: login, logger: logger}
}

// HandleBegin redirects to Discord.
//
// HTTP: GET /v1/auth/discord/{target}?state=
//
// CSRF PROTECTION VIA STATE:
// The client's opaque state (or a random one when it sends none) is stored
// in a short-lived HttpOnly cookie and sent to Discord. HandleCallback
// rejects a callback whose state does not match, and echoes the state back
// to the client on every redirect.
func (h *AuthHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	target := service.LoginTarget(r.PathValue("target"))

	authURL, state, err := h.login.Begin(target, r.URL.Query().Get("state"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// HandleCallback completes a login.
//
// HTTP: GET /v1/auth/discord/{target}/callback?code=&state=
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	target := service.LoginTarget(r.PathValue("target"))
	q := r.URL.Query()

	params := service.CallbackParams{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}

	// The state cookie is single-use.
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != params.State {
		h.logger.Warn("auth callback: state mismatch",
			slog.String("target", string(target)),
		)
		if params.Error == "" {
			params.Error = "state_mismatch"
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	outcome, err := h.login.Complete(r.Context(), target, params)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if outcome.State == service.LoginRejected {
		h.logger.Info("login rejected",
			slog.String("target", string(target)),
			slog.Int("code", outcome.Code),
			slog.String("reason", outcome.Reason),
		)
	} else {
		h.logger.Info("user authenticated",
			slog.String("target", string(target)),
			slog.Int64("userID", outcome.User.ID),
			slog.Bool("created", outcome.Created),
		)
	}
	http.Redirect(w, r, outcome.Redirect, http.StatusSeeOther)
}
