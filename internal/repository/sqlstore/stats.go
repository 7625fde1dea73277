package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.StatsRepository = (*StatsDB)(nil)

// StatsDB counts rows. Only the tables below can be counted; the entity name
// is never interpolated unchecked.
type StatsDB struct {
	db *DB
}

// countable maps each countable entity to the column naming the owning user, empty when the entity has
// no owner.
var countable = map[repository.Entity]string{
	repository.EntityUsers:   "",
	repository.EntityFinds:   "user_id",
	repository.EntityReviews: "user_id",
	repository.EntityLists:   "user_id",
	repository.EntityTags:    "",
}

func (s *StatsDB) Count(ctx context.Context, entity repository.Entity) (int64, error) {
	if _, ok := countable[entity]; !ok {
		return 0, apperror.ValidationFailed("entity", fmt.Sprintf("cannot count %q", entity))
	}

	var n int64
	if err := s.db.get(ctx, s.db.conn, &n, s.db.sb.Select("COUNT(*)").From(string(entity))); err != nil {
		return 0, fmt.Errorf("sqlstore: counting %s: %w", entity, err)
	}
	return n, nil
}

// CountByUser counts the rows of entity owned by userID.
func (s *StatsDB) CountByUser(ctx context.Context, entity repository.Entity, userID int64) (int64, error) {
	column := countable[entity]
	if column == "" {
		return 0, apperror.ValidationFailed("entity", fmt.Sprintf("%q has no owner", entity))
	}

	var n int64
	if err := s.db.get(ctx, s.db.conn, &n,
		s.db.sb.Select("COUNT(*)").From(string(entity)).Where(sq.Eq{column: userID})); err != nil {
		return 0, fmt.Errorf("sqlstore: counting %s of user %d: %w", entity, userID, err)
	}
	return n, nil
}
