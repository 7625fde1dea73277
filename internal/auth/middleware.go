package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
)

// Identity is the outcome of authenticating a request: either Anonymous or
// Authenticated. Handlers switch on the concrete type instead of checking an
// optional user field.
type Identity interface {
	identity()
}

// Anonymous is a request without a usable session token.
type Anonymous struct{}

// Authenticated is a request whose token resolved to an existing user.
type Authenticated struct {
	User *model.User
}

func (Anonymous) identity()     {}
func (Authenticated) identity() {}

// UserLookup resolves the user id carried by a token.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity Authenticate attached, or
// Anonymous when there is none.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok && id != nil {
		return id
	}
	return Anonymous{}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(ctx context.Context) (*model.User, bool) {
	if a, ok := IdentityFromContext(ctx).(Authenticated); ok && a.User != nil {
		return a.User, true
	}
	return nil, false
}

// Authenticate resolves the bearer token of every request into an Identity.
//
// It never rejects a request: a missing, malformed, expired or forged token,
// or one naming a user that no longer exists, leaves the request Anonymous.
// Routes that need a caller say so with RequireAuth or RequireAdmin.
func Authenticate(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id Identity = Anonymous{}

			if raw := bearerToken(r); raw != "" {
				userID, err := tokens.Validate(raw)
				switch {
				case err != nil:
					logger.Debug("ignoring invalid session token", slog.String("error", err.Error()))
				default:
					user, err := users.GetByID(r.Context(), userID)
					switch {
					case err == nil:
						id = Authenticated{User: user}
					case errors.Is(err, apperror.ErrNotFound):
						logger.Debug("session token for unknown user", slog.Int64("userID", userID))
					default:
						logger.Error("resolving session user",
							slog.Int64("userID", userID),
							slog.String("error", err.Error()),
						)
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth rejects Anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r.Context()); !ok {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects Anonymous requests with 401 and non-admin users with
// 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin() {
			writeAuthError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
