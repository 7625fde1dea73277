package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var emojiName = regexp.MustCompile(`^[a-z0-9_]{1,32}$`)

type EmojiInput struct {
	Name     string
	ImageURL string
}

// EmojiService handles custom emoji.
type EmojiService struct {
	emoji    repository.EmojiRepository
	activity ActivityRecorder
}

func NewEmojiService(emoji repository.EmojiRepository, activity ActivityRecorder) *EmojiService {
	return &EmojiService{emoji: emoji, activity: activity}
}

func (s *EmojiService) List(ctx context.Context) ([]model.CustomEmoji, error) {
	return s.emoji.List(ctx)
}

// Create stores an emoji. Names are lowercase letters, digits and
// underscores; the image must be an http or https URL.
func (s *EmojiService) Create(ctx context.Context, actor *model.User, in EmojiInput) (*model.CustomEmoji, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	name := strings.ToLower(strings.Trim(strings.TrimSpace(in.Name), ":"))
	if !emojiName.MatchString(name) {
		return nil, apperror.ValidationFailed("name",
			"name must be 1 to 32 lowercase letters, digits or underscores")
	}
	image := strings.TrimSpace(in.ImageURL)
	if err := validateURL("imageUrl", image); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		return nil, apperror.ValidationFailed("imageUrl", "imageUrl must be an http or https URL")
	}

	emoji := &model.CustomEmoji{Name: name, UserID: actor.ID, ImageURL: image}
	if err := s.emoji.Create(ctx, emoji); err != nil {
		return nil, fmt.Errorf("creating emoji %q: %w", name, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Created emoji: %s", name), emoji)
	return emoji, nil
}

// Delete removes an emoji. Its uploader and admins may do so.
func (s *EmojiService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	emoji, err := s.emoji.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwnerOrAdmin(actor, emoji.UserID); err != nil {
		return err
	}
	if err := s.emoji.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting emoji %d: %w", id, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Deleted emoji: %s", emoji.Name), nil)
	return nil
}
