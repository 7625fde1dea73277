package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/auth"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/service"
)

// maxBodyBytes caps a JSON request body.
const maxBodyBytes = 1 << 20

// actor is the authenticated caller, or nil. Services do their own
// authorization checks with it.
func actor(r *http.Request) *model.User {
	user, _ := auth.CurrentUser(r.Context())
	return user
}

// decodeJSON reads the request body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body is required")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", "request body is too large")
		default:
			return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return nil
}

// pathID parses a numeric path parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

// pageParams reads ?page=&limit=.
func pageParams(r *http.Request) (service.Page, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return service.Page{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return service.Page{}, err
	}
	return service.Page{Page: page, Limit: limit}, nil
}
