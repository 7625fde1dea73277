package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("find", 42),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("authentication required"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("authentication failed", errors.New("dial tcp: timeout")),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "Constraint survives fmt.Errorf wrapping",
			err:       fmt.Errorf("creating tag link: %w", Constraint(ConstraintUnique, "finds_to_tags")),
			target:    ErrConstraint,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("find", 42),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Constraint does NOT match ErrValidation",
			err:       Constraint(ConstraintUnique, "users.email"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("find", 7),
			wantMessage: "find not found with id 7",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Constraint hides the constraint name",
			err:         Constraint(ConstraintForeignKey, "reviews.find_id"),
			wantMessage: "the request violates a storage constraint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUpstreamKeepsCauseInDetail(t *testing.T) {
	err := Upstream("authentication failed", errors.New("oauth2: 401 invalid_grant"))

	if err.Detail != "oauth2: 401 invalid_grant" {
		t.Errorf("Detail = %q, want provider error", err.Detail)
	}
	if err.Error() != "authentication failed" {
		t.Errorf("Error() = %q, want generic message", err.Error())
	}
}

func TestIsConstraint(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Constraint(ConstraintUnique, "tags.name"))

	if !IsConstraint(err, ConstraintUnique) {
		t.Error("IsConstraint(unique) = false, want true")
	}
	if IsConstraint(err, ConstraintForeignKey) {
		t.Error("IsConstraint(foreign_key) = true, want false")
	}
	if IsConstraint(NotFound("tag", 1), ConstraintUnique) {
		t.Error("IsConstraint on a NotFound error = true, want false")
	}
}
