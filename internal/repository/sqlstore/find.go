package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.FindRepository = (*FindDB)(nil)

// FindDB stores finds and their tag links.
//
// QUERY SHAPE:
// A page of finds costs exactly two queries, however many rows it returns:
//  1. finds JOIN users (one row per find, owner columns aliased user_*)
//  2. finds_to_tags JOIN tags WHERE find_id IN (ids from step 1)
//
// Joining tags into the first query would return one row per (find, tag)
// pair and break LIMIT/OFFSET paging.
type FindDB struct {
	db *DB
}

var findColumns = []string{"id", "user_id", "title", "url", "image_url", "created_at", "updated_at"}

// findRow is one row of the finds JOIN users query.
type findRow struct {
	model.Find
	Username      string     `db:"user_username"`
	UserAvatarURL *string    `db:"user_avatar_url"`
	UserRole      model.Role `db:"user_role"`
	UserCreatedAt time.Time  `db:"user_created_at"`
}

func (r findRow) details() model.FindDetails {
	return model.FindDetails{
		Find: r.Find,
		User: model.PublicUser{
			ID:        r.UserID,
			Username:  r.Username,
			AvatarURL: r.UserAvatarURL,
			Role:      r.UserRole,
			CreatedAt: r.UserCreatedAt,
		},
		Tags: []model.Tag{},
	}
}

func (f *FindDB) detailsQuery() sq.SelectBuilder {
	return f.db.sb.Select(
		"f.id", "f.user_id", "f.title", "f.url", "f.image_url", "f.created_at", "f.updated_at",
		"u.username AS user_username",
		"u.avatar_url AS user_avatar_url",
		"u.role AS user_role",
		"u.created_at AS user_created_at",
	).From("finds f").Join("users u ON u.id = f.user_id")
}

func (f *FindDB) Create(ctx context.Context, find *model.Find, tags []string) error {
	ts := now()
	err := f.db.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := f.db.insert(ctx, tx, f.db.sb.Insert("finds").
			Columns("user_id", "title", "url", "image_url", "created_at", "updated_at").
			Values(find.UserID, find.Title, find.URL, find.ImageURL, ts, ts))
		if err != nil {
			return err
		}
		find.ID = id
		return f.linkTags(ctx, tx, id, tags)
	})
	if err != nil {
		return fmt.Errorf("sqlstore: creating find: %w", err)
	}

	find.CreatedAt = ts
	find.UpdatedAt = ts
	return nil
}

func (f *FindDB) Get(ctx context.Context, id int64) (*model.Find, error) {
	var find model.Find
	err := f.db.get(ctx, f.db.conn, &find,
		f.db.sb.Select(findColumns...).From("finds").Where(sq.Eq{"id": id}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("find", id)
		}
		return nil, fmt.Errorf("sqlstore: getting find %d: %w", id, err)
	}
	return &find, nil
}

// GetDetails returns the find with its redacted owner and its tags.
func (f *FindDB) GetDetails(ctx context.Context, id int64) (*model.FindDetails, error) {
	var row findRow
	if err := f.db.get(ctx, f.db.conn, &row, f.detailsQuery().Where(sq.Eq{"f.id": id})); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("find", id)
		}
		return nil, fmt.Errorf("sqlstore: getting find %d: %w", id, err)
	}

	finds := []model.FindDetails{row.details()}
	if err := f.attachTags(ctx, finds); err != nil {
		return nil, fmt.Errorf("sqlstore: getting find %d: %w", id, err)
	}
	return &finds[0], nil
}

// List returns one page of finds matching q.
//
// The sort column is looked up in a whitelist, never interpolated from the
// request; an unknown value falls back to created_at. Every ORDER BY ends
// with the id so rows with equal sort keys keep a stable order across pages.
func (f *FindDB) List(ctx context.Context, q repository.FindQuery) ([]model.FindDetails, error) {
	b := f.detailsQuery()

	if q.UserID != 0 {
		b = b.Where(sq.Eq{"f.user_id": q.UserID})
	}
	if q.Title != "" {
		b = b.Where(ilike("f.title", q.Title))
	}
	if q.Username != "" {
		b = b.Where(ilike("u.username", q.Username))
	}
	if q.Tag != "" {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM finds_to_tags ft JOIN tags t ON t.id = ft.tag_id "+
				"WHERE ft.find_id = f.id AND LOWER(t.name) LIKE ? ESCAPE '\\')",
			likePattern(q.Tag)))
	}

	column := "f.created_at"
	switch q.SortBy {
	case repository.SortByUpdatedAt:
		column = "f.updated_at"
	case repository.SortByTitle:
		column = "f.title"
	}
	direction := "DESC"
	if q.SortOrder == repository.SortAsc {
		direction = "ASC"
	}
	b = b.OrderBy(column+" "+direction, "f.id "+direction)

	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit)).Offset(uint64(q.Offset))
	}

	var rows []findRow
	if err := f.db.selectAll(ctx, f.db.conn, &rows, b); err != nil {
		return nil, fmt.Errorf("sqlstore: listing finds: %w", err)
	}

	finds := make([]model.FindDetails, len(rows))
	for i, row := range rows {
		finds[i] = row.details()
	}
	if err := f.attachTags(ctx, finds); err != nil {
		return nil, fmt.Errorf("sqlstore: listing finds: %w", err)
	}
	return finds, nil
}

func (f *FindDB) Update(ctx context.Context, find *model.Find, tags []string) error {
	ts := now()
	err := f.db.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := f.db.exec(ctx, tx, f.db.sb.Update("finds").
			Set("title", find.Title).
			Set("url", find.URL).
			Set("image_url", find.ImageURL).
			Set("updated_at", ts).
			Where(sq.Eq{"id": find.ID}))
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NotFound("find", find.ID)
		}

		if tags == nil {
			return nil
		}
		if _, err := f.db.exec(ctx, tx, f.db.sb.Delete("finds_to_tags").Where(sq.Eq{"find_id": find.ID})); err != nil {
			return err
		}
		return f.linkTags(ctx, tx, find.ID, tags)
	})
	if err != nil {
		return fmt.Errorf("sqlstore: updating find %d: %w", find.ID, err)
	}

	find.UpdatedAt = ts
	return nil
}

// Delete removes the find. Tag links, reviews, list items, comments and
// subscriptions on it go with it; the tags and lists themselves stay.
func (f *FindDB) Delete(ctx context.Context, id int64) error {
	n, err := f.db.exec(ctx, f.db.conn, f.db.sb.Delete("finds").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting find %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("find", id)
	}
	return nil
}

// AttachTag links an existing tag to a find. Linking the same pair twice
// fails with a unique constraint violation.
func (f *FindDB) AttachTag(ctx context.Context, findID, tagID int64) error {
	_, err := f.db.exec(ctx, f.db.conn, f.db.sb.Insert("finds_to_tags").
		Columns("find_id", "tag_id", "created_at").
		Values(findID, tagID, now()))
	if err != nil {
		return fmt.Errorf("sqlstore: attaching tag %d to find %d: %w", tagID, findID, err)
	}
	return nil
}

func (f *FindDB) DetachTag(ctx context.Context, findID, tagID int64) error {
	n, err := f.db.exec(ctx, f.db.conn, f.db.sb.Delete("finds_to_tags").
		Where(sq.Eq{"find_id": findID, "tag_id": tagID}))
	if err != nil {
		return fmt.Errorf("sqlstore: detaching tag %d from find %d: %w", tagID, findID, err)
	}
	if n == 0 {
		return apperror.NotFoundMessage(fmt.Sprintf("tag %d is not attached to find %d", tagID, findID))
	}
	return nil
}

// linkTags attaches the named tags to a find inside tx, creating missing tags.
// Names must already be normalized and deduplicated.
func (f *FindDB) linkTags(ctx context.Context, tx *sqlx.Tx, findID int64, names []string) error {
	ts := now()
	for _, name := range names {
		tag, err := getOrCreateTag(ctx, f.db, tx, name)
		if err != nil {
			return err
		}
		if _, err := f.db.exec(ctx, tx, f.db.sb.Insert("finds_to_tags").
			Columns("find_id", "tag_id", "created_at").
			Values(findID, tag.ID, ts)); err != nil {
			return fmt.Errorf("linking tag %q: %w", name, err)
		}
	}
	return nil
}

// attachTags loads the tags of every find in one query and stores them in
// place.
func (f *FindDB) attachTags(ctx context.Context, finds []model.FindDetails) error {
	if len(finds) == 0 {
		return nil
	}

	ids := make([]int64, len(finds))
	index := make(map[int64]int, len(finds))
	for i, find := range finds {
		ids[i] = find.ID
		index[find.ID] = i
	}

	var rows []struct {
		FindID int64 `db:"find_id"`
		model.Tag
	}
	err := f.db.selectAll(ctx, f.db.conn, &rows,
		f.db.sb.Select("ft.find_id", "t.id", "t.name", "t.created_at").
			From("finds_to_tags ft").
			Join("tags t ON t.id = ft.tag_id").
			Where(sq.Eq{"ft.find_id": ids}).
			OrderBy("t.name ASC"))
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}

	for _, row := range rows {
		i := index[row.FindID]
		finds[i].Tags = append(finds[i].Tags, row.Tag)
	}
	return nil
}
