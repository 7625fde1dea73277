// Package service holds the business rules of the board.
//
// LAYERING:
//
//	handler (HTTP) → service (rules) → repository (storage)
//	                               ↘ activity (audit trail)
//	                               ↘ Notifier (subscriber fan-out)
//
// Services never see an *http.Request. The caller is passed in explicitly as
// a *model.User, nil when the request is anonymous, so every ownership and
// role check is visible in the method that makes it.
//
// ERRORS:
// Rule violations are returned as *apperror.AppError values (validation,
// forbidden, not found). Storage failures are wrapped with fmt.Errorf and
// %w so the handler can still classify them with errors.Is.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// Validation limits and pagination defaults.
const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultSearchLimit = 5
	MaxSearchLimit     = 50

	MaxTitleLength   = 255
	MaxCommentLength = 2000
	MaxTagLength     = 64
)

// ActivityRecorder is the audit trail. *activity.Recorder implements it.
// Record must not block the caller and must not fail it.
type ActivityRecorder interface {
	Record(ctx context.Context, userID *int64, message string, meta any)
}

// Page is a 0-based page request as it arrives from a query string.
type Page struct {
	Page  int
	Limit int
}

// Options clamps the page into repository list options: a non-positive limit
// becomes DefaultListLimit, anything above MaxListLimit is capped, and a
// negative page is treated as the first.
func (p Page) Options() repository.ListOptions {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	return repository.ListOptions{Limit: limit, Offset: page * limit}
}

// requireUser turns an anonymous caller into a 401.
func requireUser(actor *model.User) error {
	if actor == nil {
		return apperror.Unauthorized("authentication required")
	}
	return nil
}

// requireOwner allows the owner of a resource and nobody else.
func requireOwner(actor *model.User, ownerID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if actor.ID != ownerID {
		return apperror.Forbidden("you do not own this resource")
	}
	return nil
}

// requireOwnerOrAdmin additionally lets admins through.
func requireOwnerOrAdmin(actor *model.User, ownerID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if actor.ID != ownerID && !actor.IsAdmin() {
		return apperror.Forbidden("you do not own this resource")
	}
	return nil
}

func requireAdmin(actor *model.User) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperror.Forbidden("admin role required")
	}
	return nil
}

// validateTitle trims the title and checks it is between 1 and MaxTitleLength
// characters long.
func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	return title, nil
}

// validateOptionalURL accepts nil or blank as "no URL". Anything else must be
// an absolute URL with a scheme and a host.
func validateOptionalURL(field string, raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return nil, nil
	}
	if err := validateURL(field, s); err != nil {
		return nil, err
	}
	return &s, nil
}

func validateURL(field, s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s is not a valid URL", field))
	}
	return nil
}

// normalizeTags lowercases tag names, strips a leading '#', drops blanks and
// removes duplicates while keeping first-seen order.
func normalizeTags(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "#")))
		if name == "" || seen[name] {
			continue
		}
		if utf8.RuneCountInString(name) > MaxTagLength {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tag %q is longer than %d characters", name, MaxTagLength))
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}

// optionalText trims s and maps blank to nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
