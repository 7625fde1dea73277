package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.ReviewRepository = (*ReviewDB)(nil)

// ReviewDB stores reviews.
type ReviewDB struct {
	db *DB
}

type reviewRow struct {
	model.Review
	Username      string     `db:"user_username"`
	UserAvatarURL *string    `db:"user_avatar_url"`
	UserRole      model.Role `db:"user_role"`
	UserCreatedAt time.Time  `db:"user_created_at"`
}

func (r reviewRow) details() model.ReviewDetails {
	return model.ReviewDetails{
		Review: r.Review,
		User: model.PublicUser{
			ID:        r.UserID,
			Username:  r.Username,
			AvatarURL: r.UserAvatarURL,
			Role:      r.UserRole,
			CreatedAt: r.UserCreatedAt,
		},
	}
}

func (r *ReviewDB) detailsQuery() sq.SelectBuilder {
	return r.db.sb.Select(
		"r.id", "r.user_id", "r.find_id", "r.rating", "r.content", "r.created_at", "r.updated_at",
		"u.username AS user_username",
		"u.avatar_url AS user_avatar_url",
		"u.role AS user_role",
		"u.created_at AS user_created_at",
	).From("reviews r").Join("users u ON u.id = r.user_id")
}

func (r *ReviewDB) selectDetails(ctx context.Context, b sq.SelectBuilder) ([]model.ReviewDetails, error) {
	var rows []reviewRow
	if err := r.db.selectAll(ctx, r.db.conn, &rows, b); err != nil {
		return nil, err
	}
	reviews := make([]model.ReviewDetails, len(rows))
	for i, row := range rows {
		reviews[i] = row.details()
	}
	return reviews, nil
}

func (r *ReviewDB) Create(ctx context.Context, review *model.Review) error {
	ts := now()
	id, err := r.db.insert(ctx, r.db.conn, r.db.sb.Insert("reviews").
		Columns("user_id", "find_id", "rating", "content", "created_at", "updated_at").
		Values(review.UserID, review.FindID, string(review.Rating), review.Content, ts, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating review of find %d: %w", review.FindID, err)
	}

	review.ID = id
	review.CreatedAt = ts
	review.UpdatedAt = ts
	return nil
}

func (r *ReviewDB) GetByID(ctx context.Context, id int64) (*model.ReviewDetails, error) {
	var row reviewRow
	if err := r.db.get(ctx, r.db.conn, &row, r.detailsQuery().Where(sq.Eq{"r.id": id})); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("review", id)
		}
		return nil, fmt.Errorf("sqlstore: getting review %d: %w", id, err)
	}
	details := row.details()
	return &details, nil
}

func (r *ReviewDB) List(ctx context.Context, opts repository.ListOptions) ([]model.ReviewDetails, error) {
	b := r.detailsQuery().OrderBy("r.created_at DESC", "r.id DESC")
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}
	reviews, err := r.selectDetails(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewDB) ListByFind(ctx context.Context, findID int64) ([]model.ReviewDetails, error) {
	reviews, err := r.selectDetails(ctx,
		r.detailsQuery().Where(sq.Eq{"r.find_id": findID}).OrderBy("r.created_at DESC", "r.id DESC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing reviews of find %d: %w", findID, err)
	}
	return reviews, nil
}

// Search matches review text case-insensitively.
func (r *ReviewDB) Search(ctx context.Context, term string, limit int) ([]model.ReviewDetails, error) {
	b := r.detailsQuery().Where(ilike("r.content", term)).OrderBy("r.created_at DESC", "r.id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	reviews, err := r.selectDetails(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: searching reviews: %w", err)
	}
	return reviews, nil
}

func (r *ReviewDB) Update(ctx context.Context, review *model.Review) error {
	ts := now()
	n, err := r.db.exec(ctx, r.db.conn, r.db.sb.Update("reviews").
		Set("rating", string(review.Rating)).
		Set("content", review.Content).
		Set("updated_at", ts).
		Where(sq.Eq{"id": review.ID}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating review %d: %w", review.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("review", review.ID)
	}
	review.UpdatedAt = ts
	return nil
}

func (r *ReviewDB) Delete(ctx context.Context, id int64) error {
	n, err := r.db.exec(ctx, r.db.conn, r.db.sb.Delete("reviews").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting review %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("review", id)
	}
	return nil
}
