package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// UserService reads and administers accounts.
//
// REDACTION:
// Every method that can return another user's data returns
// model.PublicUser, which has no email, Discord id or last login field.
// Only Get for the caller's own id and Me hand out a full *model.User.
type UserService struct {
	users    repository.UserRepository
	stats    repository.StatsRepository
	activity ActivityRecorder
	logger   *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	stats repository.StatsRepository,
	activity ActivityRecorder,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		stats:    stats,
		activity: activity,
		logger:   logger,
	}
}

func (s *UserService) List(ctx context.Context, page Page) ([]model.PublicUser, error) {
	users, err := s.users.List(ctx, page.Options())
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Get returns a *model.User when actor is the requested user and a
// model.PublicUser otherwise.
func (s *UserService) Get(ctx context.Context, actor *model.User, id int64) (any, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.ID == user.ID {
		return user, nil
	}
	return user.Public(), nil
}

// Me returns the caller's own full record.
func (s *UserService) Me(actor *model.User) (*model.User, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// Stats counts a user's finds, reviews and lists concurrently.
func (s *UserService) Stats(ctx context.Context, id int64) (*model.UserStats, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStats{User: user.Public()}
	g, gctx := errgroup.WithContext(ctx)
	for entity, dest := range map[repository.Entity]*int64{
		repository.EntityFinds:   &stats.FindsCount,
		repository.EntityReviews: &stats.ReviewsCount,
		repository.EntityLists:   &stats.ListsCount,
	} {
		g.Go(func() error {
			n, err := s.stats.CountByUser(gctx, entity, id)
			if err != nil {
				return fmt.Errorf("counting %s of user %d: %w", entity, id, err)
			}
			*dest = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// GrantAdmin promotes a user to admin on behalf of an admin caller. The
// caller is not the account owner, so only the redacted projection comes back.
func (s *UserService) GrantAdmin(ctx context.Context, actor *model.User, id int64) (model.PublicUser, error) {
	if err := requireAdmin(actor); err != nil {
		return model.PublicUser{}, err
	}
	user, err := s.promote(ctx, &actor.ID, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// Promote grants admin without a caller. The grant-admin command uses it to
// bootstrap the first admin.
func (s *UserService) Promote(ctx context.Context, id int64) (*model.User, error) {
	return s.promote(ctx, nil, id)
}

func (s *UserService) promote(ctx context.Context, actorID *int64, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return user, nil
	}

	if err := s.users.SetRole(ctx, id, model.RoleAdmin); err != nil {
		return nil, fmt.Errorf("granting admin to user %d: %w", id, err)
	}
	user.Role = model.RoleAdmin

	s.logger.Info("admin role granted", slog.Int64("userID", id))
	s.activity.Record(ctx, actorID, fmt.Sprintf("Granted admin role to user: %d", id),
		map[string]int64{"userId": id})
	return user, nil
}

// Delete removes an account and everything it owns. Its log entries stay,
// detached from the account.
func (s *UserService) Delete(ctx context.Context, actor *model.User, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == id {
		return apperror.ValidationFailed("id", "admins cannot delete their own account")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}

	s.logger.Info("user deleted", slog.Int64("userID", id), slog.Int64("by", actor.ID))
	s.activity.Record(ctx, &actor.ID, fmt.Sprintf("Deleted user: %d", id),
		map[string]any{"userId": id, "username": user.Username})
	return nil
}
