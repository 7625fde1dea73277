package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// TagService exposes the shared tag vocabulary.
type TagService struct {
	tags     repository.TagRepository
	activity ActivityRecorder
}

func NewTagService(tags repository.TagRepository, activity ActivityRecorder) *TagService {
	return &TagService{tags: tags, activity: activity}
}

// List returns every tag, or the tags whose name contains search when it is
// not blank.
func (s *TagService) List(ctx context.Context, search string) ([]model.Tag, error) {
	search = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(search), "#"))
	if search == "" {
		return s.tags.List(ctx)
	}
	tags, err := s.tags.Search(ctx, search, 0)
	if err != nil {
		return nil, fmt.Errorf("searching tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id int64) (*model.Tag, error) {
	return s.tags.GetByID(ctx, id)
}

func (s *TagService) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	return s.tags.GetByName(ctx, strings.ToLower(strings.TrimSpace(name)))
}

// Delete removes a tag. Finds that carried it keep existing.
func (s *TagService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tags.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting tag %d: %w", id, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Deleted tag: %s", tag.Name), tag)
	return nil
}
