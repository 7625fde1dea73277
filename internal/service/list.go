package service

import (
	"context"
	"fmt"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

type ListInput struct {
	Title         string
	Description   *string
	Collaborative bool
	Private       bool
}

// ListUpdate is a partial update; nil fields are left alone.
type ListUpdate struct {
	Title         *string
	Description   *string
	Collaborative *bool
	Private       *bool
}

// ListService handles curated lists.
//
// VISIBILITY:
// A private list exists only for its owner. Everyone else gets a 404, not a
// 403, so the list's existence is not revealed.
//
// ITEMS:
// The owner can always add and remove items. On a collaborative list that
// is not private, any signed-in user can too.
type ListService struct {
	lists    repository.ListRepository
	finds    repository.FindRepository
	users    repository.UserRepository
	notifier *Notifier
	activity ActivityRecorder
}

func NewListService(
	lists repository.ListRepository,
	finds repository.FindRepository,
	users repository.UserRepository,
	notifier *Notifier,
	activity ActivityRecorder,
) *ListService {
	return &ListService{
		lists:    lists,
		finds:    finds,
		users:    users,
		notifier: notifier,
		activity: activity,
	}
}

func canSee(actor *model.User, list *model.List) bool {
	return !list.Private || (actor != nil && actor.ID == list.UserID)
}

func canEditItems(actor *model.User, list *model.List) bool {
	if actor == nil {
		return false
	}
	return actor.ID == list.UserID || (list.Collaborative && !list.Private)
}

// visible loads a list, hiding private lists from non-owners.
func (s *ListService) visible(ctx context.Context, actor *model.User, id int64) (*model.List, error) {
	list, err := s.lists.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, list) {
		return nil, apperror.NotFound("list", id)
	}
	return list, nil
}

func (s *ListService) Create(ctx context.Context, actor *model.User, in ListInput) (*model.List, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	list := &model.List{
		UserID:        actor.ID,
		Title:         title,
		Description:   optionalText(in.Description),
		Collaborative: in.Collaborative,
		Private:       in.Private,
	}
	if err := s.lists.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Created list: %d", list.ID), list)
	return list, nil
}

func (s *ListService) Get(ctx context.Context, actor *model.User, id int64) (*model.ListDetails, error) {
	if _, err := s.visible(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.lists.GetDetails(ctx, id)
}

// ListPublic pages through every list that is not private.
func (s *ListService) ListPublic(ctx context.Context, page Page) ([]model.List, error) {
	lists, err := s.lists.ListPublic(ctx, page.Options())
	if err != nil {
		return nil, fmt.Errorf("listing lists: %w", err)
	}
	return lists, nil
}

// ListByUser returns a user's lists. Private ones are included only when the
// actor is that user.
func (s *ListService) ListByUser(ctx context.Context, actor *model.User, userID int64) ([]model.List, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	self := actor != nil && actor.ID == userID
	lists, err := s.lists.ListByUser(ctx, userID, self)
	if err != nil {
		return nil, fmt.Errorf("listing lists of user %d: %w", userID, err)
	}
	return lists, nil
}

func (s *ListService) Update(ctx context.Context, actor *model.User, id int64, in ListUpdate) (*model.List, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	list, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, list.UserID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		if list.Title, err = validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		list.Description = optionalText(in.Description)
	}
	if in.Collaborative != nil {
		list.Collaborative = *in.Collaborative
	}
	if in.Private != nil {
		list.Private = *in.Private
	}

	if err := s.lists.Update(ctx, list); err != nil {
		return nil, fmt.Errorf("updating list %d: %w", id, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Updated list: %d", id), nil)
	return list, nil
}

func (s *ListService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	list, err := s.visible(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, list.UserID); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting list %d: %w", id, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Deleted list: %d", id), nil)
	return nil
}

// AddItem puts a find into a list and tells the list's change subscribers.
func (s *ListService) AddItem(ctx context.Context, actor *model.User, listID, findID int64) (*model.ListItem, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	list, err := s.visible(ctx, actor, listID)
	if err != nil {
		return nil, err
	}
	if !canEditItems(actor, list) {
		return nil, apperror.Forbidden("only the owner can change this list")
	}
	find, err := s.finds.Get(ctx, findID)
	if err != nil {
		return nil, err
	}

	item := &model.ListItem{ListID: listID, FindID: findID, UserID: actor.ID}
	if err := s.lists.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("adding find %d to list %d: %w", findID, listID, err)
	}

	s.notifier.Notify(ctx, actor.ID, model.SubscribeListChanges, listID,
		fmt.Sprintf("%s added %s to %s", actor.Username, find.Title, list.Title))
	return item, nil
}

func (s *ListService) RemoveItem(ctx context.Context, actor *model.User, listID, findID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	list, err := s.visible(ctx, actor, listID)
	if err != nil {
		return err
	}
	if !canEditItems(actor, list) {
		return apperror.Forbidden("only the owner can change this list")
	}
	return s.lists.RemoveItem(ctx, listID, findID)
}
