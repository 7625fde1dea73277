package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// FindInput is the body of a create request.
type FindInput struct {
	Title    string
	URL      *string
	ImageURL *string
	Tags     []string
}

// FindUpdate is a partial update. A nil field is left unchanged; a blank
// URL clears it. A non-nil Tags replaces the whole tag set.
type FindUpdate struct {
	Title    *string
	URL      *string
	ImageURL *string
	Tags     *[]string
}

// FindListParams is a page of the public find listing.
//
// SEARCH PREFIXES:
//
//	@name   → finds whose author's username contains "name"
//	#tag    → finds carrying a tag whose name contains "tag"
//	other   → finds whose title contains the term
type FindListParams struct {
	Page       Page
	SearchTerm string
	SortBy     string
	SortOrder  string
}

// FindService handles finds and their tags.
type FindService struct {
	finds    repository.FindRepository
	tags     repository.TagRepository
	users    repository.UserRepository
	notifier *Notifier
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewFindService(
	finds repository.FindRepository,
	tags repository.TagRepository,
	users repository.UserRepository,
	notifier *Notifier,
	activity ActivityRecorder,
	logger *slog.Logger,
) *FindService {
	return &FindService{
		finds:    finds,
		tags:     tags,
		users:    users,
		notifier: notifier,
		activity: activity,
		logger:   logger,
	}
}

// Create validates and stores a find. Nothing is written when validation
// fails.
func (s *FindService) Create(ctx context.Context, actor *model.User, in FindInput) (*model.FindDetails, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	link, err := validateOptionalURL("url", in.URL)
	if err != nil {
		return nil, err
	}
	image, err := validateOptionalURL("imageUrl", in.ImageURL)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	find := &model.Find{
		UserID:   actor.ID,
		Title:    title,
		URL:      link,
		ImageURL: image,
	}
	if err := s.finds.Create(ctx, find, tags); err != nil {
		return nil, fmt.Errorf("creating find: %w", err)
	}

	details, err := s.finds.GetDetails(ctx, find.ID)
	if err != nil {
		return nil, fmt.Errorf("loading created find: %w", err)
	}

	s.logger.Info("find created",
		slog.Int64("findID", find.ID),
		slog.Int64("userID", actor.ID),
	)
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Created find: %d", find.ID), details)

	s.notifier.Notify(ctx, actor.ID, model.SubscribeUser, actor.ID,
		fmt.Sprintf("%s posted a new find: %s", actor.Username, find.Title))
	s.notifyTags(ctx, actor, details.Tags, find)
	return details, nil
}

func (s *FindService) Get(ctx context.Context, id int64) (*model.FindDetails, error) {
	return s.finds.GetDetails(ctx, id)
}

// List returns one page of finds. Unknown sort fields or orders are
// rejected rather than silently replaced.
func (s *FindService) List(ctx context.Context, params FindListParams) ([]model.FindDetails, error) {
	q, err := findQuery(params)
	if err != nil {
		return nil, err
	}

	finds, err := s.finds.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing finds: %w", err)
	}
	return finds, nil
}

// ListByUser lists one user's finds, 404 when the user does not exist.
func (s *FindService) ListByUser(ctx context.Context, userID int64, params FindListParams) ([]model.FindDetails, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	q, err := findQuery(params)
	if err != nil {
		return nil, err
	}
	q.UserID = userID

	finds, err := s.finds.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing finds of user %d: %w", userID, err)
	}
	return finds, nil
}

func findQuery(params FindListParams) (repository.FindQuery, error) {
	q := repository.FindQuery{
		ListOptions: params.Page.Options(),
		SortBy:      repository.SortByCreatedAt,
		SortOrder:   repository.SortDesc,
	}

	switch sortBy := repository.SortField(params.SortBy); sortBy {
	case "":
	case repository.SortByCreatedAt, repository.SortByUpdatedAt, repository.SortByTitle:
		q.SortBy = sortBy
	default:
		return q, apperror.ValidationFailed("sortBy",
			"sortBy must be one of created_at, updated_at, title")
	}

	switch order := repository.SortOrder(strings.ToLower(params.SortOrder)); order {
	case "":
	case repository.SortAsc, repository.SortDesc:
		q.SortOrder = order
	default:
		return q, apperror.ValidationFailed("sortOrder", "sortOrder must be asc or desc")
	}

	term := strings.TrimSpace(params.SearchTerm)
	switch {
	case term == "":
	case strings.HasPrefix(term, "@"):
		q.Username = strings.TrimPrefix(term, "@")
	case strings.HasPrefix(term, "#"):
		q.Tag = strings.ToLower(strings.TrimPrefix(term, "#"))
	default:
		q.Title = term
	}
	return q, nil
}

// Update applies a partial update. Only the owner may update a find.
func (s *FindService) Update(ctx context.Context, actor *model.User, id int64, in FindUpdate) (*model.FindDetails, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	current, err := s.finds.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, current.UserID); err != nil {
		return nil, err
	}

	find := current.Find
	if in.Title != nil {
		if find.Title, err = validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.URL != nil {
		if find.URL, err = validateOptionalURL("url", in.URL); err != nil {
			return nil, err
		}
	}
	if in.ImageURL != nil {
		if find.ImageURL, err = validateOptionalURL("imageUrl", in.ImageURL); err != nil {
			return nil, err
		}
	}
	var tags []string
	if in.Tags != nil {
		if tags, err = normalizeTags(*in.Tags); err != nil {
			return nil, err
		}
	}

	if err := s.finds.Update(ctx, &find, tags); err != nil {
		return nil, fmt.Errorf("updating find %d: %w", id, err)
	}

	updated, err := s.finds.GetDetails(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading updated find: %w", err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Updated find: %s", updated.Title), updated.ID)

	if in.Tags != nil {
		s.notifyTags(ctx, actor, addedTags(current.Tags, updated.Tags), &updated.Find)
	}
	return updated, nil
}

// Delete removes a find. Only the owner may delete it.
func (s *FindService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	find, err := s.finds.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, find.UserID); err != nil {
		return err
	}

	if err := s.finds.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting find %d: %w", id, err)
	}
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Deleted find: %d", id), nil)
	return nil
}

// AttachTag adds one tag, by name, to a find the actor owns. The tag is
// created if needed. Attaching a tag twice is a storage constraint error.
func (s *FindService) AttachTag(ctx context.Context, actor *model.User, findID int64, name string) (*model.Tag, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	names, err := normalizeTags([]string{name})
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, apperror.ValidationFailed("name", "tag name is required")
	}

	find, err := s.finds.Get(ctx, findID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, find.UserID); err != nil {
		return nil, err
	}

	tag, err := s.tags.GetOrCreate(ctx, names[0])
	if err != nil {
		return nil, fmt.Errorf("resolving tag %q: %w", names[0], err)
	}
	if err := s.finds.AttachTag(ctx, findID, tag.ID); err != nil {
		return nil, fmt.Errorf("attaching tag: %w", err)
	}

	s.notifyTags(ctx, actor, []model.Tag{*tag}, find)
	return tag, nil
}

func (s *FindService) DetachTag(ctx context.Context, actor *model.User, findID, tagID int64) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	find, err := s.finds.Get(ctx, findID)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, find.UserID); err != nil {
		return err
	}
	return s.finds.DetachTag(ctx, findID, tagID)
}

func (s *FindService) notifyTags(ctx context.Context, actor *model.User, tags []model.Tag, find *model.Find) {
	for _, tag := range tags {
		s.notifier.Notify(ctx, actor.ID, model.SubscribeTag, tag.ID,
			fmt.Sprintf("New find tagged #%s: %s", tag.Name, find.Title))
	}
}

// addedTags returns the tags in after that were not in before.
func addedTags(before, after []model.Tag) []model.Tag {
	had := make(map[int64]bool, len(before))
	for _, t := range before {
		had[t.ID] = true
	}
	var added []model.Tag
	for _, t := range after {
		if !had[t.ID] {
			added = append(added, t)
		}
	}
	return added
}
