package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// CommentService handles comments on finds, reviews and lists.
type CommentService struct {
	comments repository.CommentRepository
	finds    repository.FindRepository
	reviews  repository.ReviewRepository
	lists    repository.ListRepository
	notifier *Notifier
}

func NewCommentService(
	comments repository.CommentRepository,
	finds repository.FindRepository,
	reviews repository.ReviewRepository,
	lists repository.ListRepository,
	notifier *Notifier,
) *CommentService {
	return &CommentService{
		comments: comments,
		finds:    finds,
		reviews:  reviews,
		lists:    lists,
		notifier: notifier,
	}
}

// subject is what a comment is about, resolved from its target.
type subject struct {
	title        string
	subscription model.SubscriptionTarget
}

// resolve checks that the target exists and is visible to actor.
func (s *CommentService) resolve(ctx context.Context, actor *model.User, target model.CommentTarget, id int64) (subject, error) {
	switch target {
	case model.CommentOnFind:
		find, err := s.finds.Get(ctx, id)
		if err != nil {
			return subject{}, err
		}
		return subject{title: find.Title, subscription: model.SubscribeFind}, nil
	case model.CommentOnReview:
		review, err := s.reviews.GetByID(ctx, id)
		if err != nil {
			return subject{}, err
		}
		return subject{title: fmt.Sprintf("a review by %s", review.User.Username), subscription: model.SubscribeReview}, nil
	case model.CommentOnList:
		list, err := s.lists.Get(ctx, id)
		if err != nil {
			return subject{}, err
		}
		if !canSee(actor, list) {
			return subject{}, apperror.NotFound("list", id)
		}
		return subject{title: list.Title, subscription: model.SubscribeList}, nil
	}
	return subject{}, apperror.ValidationFailed("target", fmt.Sprintf("unknown comment target %q", target))
}

func (s *CommentService) List(ctx context.Context, actor *model.User, target model.CommentTarget, targetID int64) ([]model.Comment, error) {
	if _, err := s.resolve(ctx, actor, target, targetID); err != nil {
		return nil, err
	}
	comments, err := s.comments.List(ctx, target, targetID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// Create posts a comment and notifies the subscribers of what it is on.
func (s *CommentService) Create(ctx context.Context, actor *model.User, target model.CommentTarget, targetID int64, content string) (*model.Comment, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("content must be at most %d characters", MaxCommentLength))
	}

	subj, err := s.resolve(ctx, actor, target, targetID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		Target:   target,
		TargetID: targetID,
		UserID:   actor.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.notifier.Notify(ctx, actor.ID, subj.subscription, targetID,
		fmt.Sprintf("%s commented on %s", actor.Username, subj.title))
	return comment, nil
}

// Delete removes a comment. Its author and admins may do so.
func (s *CommentService) Delete(ctx context.Context, actor *model.User, target model.CommentTarget, targetID, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, target, id)
	if err != nil {
		return err
	}
	if comment.TargetID != targetID {
		return apperror.NotFound("comment", id)
	}
	if err := requireOwnerOrAdmin(actor, comment.UserID); err != nil {
		return err
	}
	return s.comments.Delete(ctx, target, id)
}
