package service

import (
	"context"
	"fmt"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

type ReviewInput struct {
	FindID  int64
	Rating  model.Rating
	Content *string
}

// ReviewUpdate is a partial update; nil fields are left alone.
type ReviewUpdate struct {
	Rating  *model.Rating
	Content *string
}

// ReviewService handles reviews of finds.
type ReviewService struct {
	reviews  repository.ReviewRepository
	finds    repository.FindRepository
	notifier *Notifier
	activity ActivityRecorder
}

func NewReviewService(
	reviews repository.ReviewRepository,
	finds repository.FindRepository,
	notifier *Notifier,
	activity ActivityRecorder,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		finds:    finds,
		notifier: notifier,
		activity: activity,
	}
}

func validateRating(r model.Rating) error {
	if !r.Valid() {
		return apperror.ValidationFailed("rating", "rating must be one of good, neutral, bad")
	}
	return nil
}

func (s *ReviewService) Create(ctx context.Context, actor *model.User, in ReviewInput) (*model.ReviewDetails, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}
	find, err := s.finds.Get(ctx, in.FindID)
	if err != nil {
		return nil, err
	}

	review := &model.Review{
		UserID:  actor.ID,
		FindID:  find.ID,
		Rating:  in.Rating,
		Content: optionalText(in.Content),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("creating review: %w", err)
	}

	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Created review: %d", review.ID), review)
	s.notifier.Notify(ctx, actor.ID, model.SubscribeFind, find.ID,
		fmt.Sprintf("%s reviewed %s: %s", actor.Username, find.Title, review.Rating))

	return s.reviews.GetByID(ctx, review.ID)
}

func (s *ReviewService) Get(ctx context.Context, id int64) (*model.ReviewDetails, error) {
	return s.reviews.GetByID(ctx, id)
}

func (s *ReviewService) List(ctx context.Context, page Page) ([]model.ReviewDetails, error) {
	reviews, err := s.reviews.List(ctx, page.Options())
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}

// ListByFind returns the reviews of one find, 404 when the find is missing.
func (s *ReviewService) ListByFind(ctx context.Context, findID int64) ([]model.ReviewDetails, error) {
	if _, err := s.finds.Get(ctx, findID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByFind(ctx, findID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of find %d: %w", findID, err)
	}
	return reviews, nil
}

func (s *ReviewService) Update(ctx context.Context, actor *model.User, id int64, in ReviewUpdate) (*model.ReviewDetails, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	current, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, current.UserID); err != nil {
		return nil, err
	}

	review := current.Review
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		review.Rating = *in.Rating
	}
	if in.Content != nil {
		review.Content = optionalText(in.Content)
	}
	if err := s.reviews.Update(ctx, &review); err != nil {
		return nil, fmt.Errorf("updating review %d: %w", id, err)
	}

	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Updated review: %d", id), nil)
	return s.reviews.GetByID(ctx, id)
}

func (s *ReviewService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, review.UserID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting review %d: %w", id, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Deleted review: %d", id), nil)
	return nil
}
