package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/auth"
	"github.com/sakif/findsboard/internal/model"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", apperror.ValidationFailed("title", "title is required"), http.StatusBadRequest, "title is required"},
		{"unauthorized", apperror.Unauthorized("authentication required"), http.StatusUnauthorized, "authentication required"},
		{"forbidden", apperror.Forbidden("you do not own this resource"), http.StatusForbidden, "you do not own this resource"},
		{"not found wrapped", fmt.Errorf("loading find: %w", apperror.NotFoundMessage("find not found")), http.StatusNotFound, "find not found"},
		{"upstream shows its message", apperror.Upstream("could not fetch the page", errors.New("dial tcp")), http.StatusInternalServerError, "could not fetch the page"},
		{"plain error is hidden", errors.New("pq: relation does not exist"), http.StatusInternalServerError, internalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, httptest.NewRequest(http.MethodGet, "/v1/x", nil), discard(), tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body.Error)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"title":"x"}`, ""},
		{"unknown fields ignored", `{"title":"x","extra":1}`, ""},
		{"empty", ``, "request body is required"},
		{"malformed", `{"title":`, "invalid JSON body"},
		{"too large", `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "request body is too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst payload
			rr := httptest.NewRecorder()
			err := decodeJSON(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)), &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "x", dst.Title)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPathIDAndPaging(t *testing.T) {
	var gotID int64
	var gotErr error
	r := chi.NewRouter()
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotID, gotErr = pathID(r, "id")
	})

	for raw, ok := range map[string]bool{"7": true, "0": false, "-3": false, "abc": false} {
		gotID, gotErr = 0, nil
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+raw, nil))
		if ok {
			assert.NoError(t, gotErr, raw)
			assert.EqualValues(t, 7, gotID)
		} else {
			assert.ErrorIs(t, gotErr, apperror.ErrValidation, raw)
		}
	}

	page, err := pageParams(httptest.NewRequest(http.MethodGet, "/?page=2&limit=10", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)

	_, err = pageParams(httptest.NewRequest(http.MethodGet, "/?limit=ten", nil))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestActor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, actor(req))

	user := &model.User{ID: 3}
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Authenticated{User: user}))
	assert.Same(t, user, actor(req))
}
