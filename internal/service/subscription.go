package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// SubscriptionService manages what users watch and the notifications they
// receive.
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	notifications repository.NotificationRepository
	finds         repository.FindRepository
	reviews       repository.ReviewRepository
	tags          repository.TagRepository
	users         repository.UserRepository
	lists         repository.ListRepository
}

func NewSubscriptionService(
	subscriptions repository.SubscriptionRepository,
	notifications repository.NotificationRepository,
	finds repository.FindRepository,
	reviews repository.ReviewRepository,
	tags repository.TagRepository,
	users repository.UserRepository,
	lists repository.ListRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		notifications: notifications,
		finds:         finds,
		reviews:       reviews,
		tags:          tags,
		users:         users,
		lists:         lists,
	}
}

// exists checks that the subscription target can be seen by actor.
func (s *SubscriptionService) exists(ctx context.Context, actor *model.User, target model.SubscriptionTarget, id int64) error {
	var err error
	switch target {
	case model.SubscribeFind:
		_, err = s.finds.Get(ctx, id)
	case model.SubscribeReview:
		_, err = s.reviews.GetByID(ctx, id)
	case model.SubscribeTag:
		_, err = s.tags.GetByID(ctx, id)
	case model.SubscribeUser:
		_, err = s.users.GetByID(ctx, id)
	case model.SubscribeList, model.SubscribeListChanges:
		var list *model.List
		list, err = s.lists.Get(ctx, id)
		if err == nil && !canSee(actor, list) {
			err = apperror.NotFound("list", id)
		}
	default:
		err = apperror.ValidationFailed("target", fmt.Sprintf("unknown subscription target %q", target))
	}
	return err
}

// Subscribe starts watching a target. Subscribing twice returns the existing
// subscription.
func (s *SubscriptionService) Subscribe(ctx context.Context, actor *model.User, target model.SubscriptionTarget, targetID int64) (*model.Subscription, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, apperror.ValidationFailed("target", fmt.Sprintf("unknown subscription target %q", target))
	}
	if err := s.exists(ctx, actor, target, targetID); err != nil {
		return nil, err
	}

	existing, err := s.subscriptions.Find(ctx, actor.ID, target, targetID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking subscription: %w", err)
	}

	sub := &model.Subscription{UserID: actor.ID, Target: target, TargetID: targetID}
	if err := s.subscriptions.Subscribe(ctx, sub); err != nil {
		return nil, fmt.Errorf("subscribing: %w", err)
	}
	return sub, nil
}

// Unsubscribe deletes a subscription and, with it, its notifications.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, actor *model.User, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	sub, err := s.subscriptions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, sub.UserID); err != nil {
		return err
	}
	return s.subscriptions.Delete(ctx, id)
}

func (s *SubscriptionService) ListMine(ctx context.Context, actor *model.User) ([]model.Subscription, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.subscriptions.ListByUser(ctx, actor.ID)
}

// Notifications pages through the actor's notifications, newest first.
func (s *SubscriptionService) Notifications(ctx context.Context, actor *model.User, page Page) ([]model.Notification, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.notifications.ListByUser(ctx, actor.ID, page.Options())
}

func (s *SubscriptionService) MarkRead(ctx context.Context, actor *model.User, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, id, actor.ID)
}
