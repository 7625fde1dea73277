package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.TagRepository = (*TagDB)(nil)

// TagDB stores tags.
type TagDB struct {
	db *DB
}

var tagColumns = []string{"id", "name", "created_at"}

// getOrCreateTag returns the tag called name, inserting it first if needed.
// ON CONFLICT DO NOTHING makes concurrent creators of the same name converge
// on one row instead of one of them failing.
func getOrCreateTag(ctx context.Context, db *DB, q sqlx.ExtContext, name string) (*model.Tag, error) {
	_, err := db.exec(ctx, q, db.sb.Insert("tags").
		Columns("name", "created_at").
		Values(name, now()).
		Suffix("ON CONFLICT (name) DO NOTHING"))
	if err != nil {
		return nil, fmt.Errorf("inserting tag %q: %w", name, err)
	}

	var tag model.Tag
	if err := db.get(ctx, q, &tag, db.sb.Select(tagColumns...).From("tags").Where(sq.Eq{"name": name})); err != nil {
		return nil, fmt.Errorf("reading tag %q: %w", name, err)
	}
	return &tag, nil
}

func (t *TagDB) GetOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	tag, err := getOrCreateTag(ctx, t.db, t.db.conn, name)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: %w", err)
	}
	return tag, nil
}

func (t *TagDB) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	var tag model.Tag
	err := t.db.get(ctx, t.db.conn, &tag, t.db.sb.Select(tagColumns...).From("tags").Where(sq.Eq{"id": id}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlstore: getting tag %d: %w", id, err)
	}
	return &tag, nil
}

func (t *TagDB) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	var tag model.Tag
	err := t.db.get(ctx, t.db.conn, &tag, t.db.sb.Select(tagColumns...).From("tags").Where(sq.Eq{"name": name}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("tag not found with name %s", name))
		}
		return nil, fmt.Errorf("sqlstore: getting tag %q: %w", name, err)
	}
	return &tag, nil
}

func (t *TagDB) List(ctx context.Context) ([]model.Tag, error) {
	tags := []model.Tag{}
	if err := t.db.selectAll(ctx, t.db.conn, &tags,
		t.db.sb.Select(tagColumns...).From("tags").OrderBy("name ASC")); err != nil {
		return nil, fmt.Errorf("sqlstore: listing tags: %w", err)
	}
	return tags, nil
}

// Search returns tags whose name contains term, case-insensitively. A limit
// of zero or less returns every match.
func (t *TagDB) Search(ctx context.Context, term string, limit int) ([]model.Tag, error) {
	b := t.db.sb.Select(tagColumns...).From("tags").Where(ilike("name", term)).OrderBy("name ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	tags := []model.Tag{}
	if err := t.db.selectAll(ctx, t.db.conn, &tags, b); err != nil {
		return nil, fmt.Errorf("sqlstore: searching tags: %w", err)
	}
	return tags, nil
}

// Delete removes the tag and its links to finds. The finds survive.
func (t *TagDB) Delete(ctx context.Context, id int64) error {
	n, err := t.db.exec(ctx, t.db.conn, t.db.sb.Delete("tags").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting tag %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("tag", id)
	}
	return nil
}
