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

var _ repository.ListRepository = (*ListDB)(nil)

// ListDB stores lists and the finds placed in them.
type ListDB struct {
	db *DB
}

var listColumns = []string{"id", "user_id", "title", "description", "collaborative", "private", "created_at", "updated_at"}

func (l *ListDB) Create(ctx context.Context, list *model.List) error {
	ts := now()
	id, err := l.db.insert(ctx, l.db.conn, l.db.sb.Insert("lists").
		Columns("user_id", "title", "description", "collaborative", "private", "created_at", "updated_at").
		Values(list.UserID, list.Title, list.Description, list.Collaborative, list.Private, ts, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating list: %w", err)
	}

	list.ID = id
	list.CreatedAt = ts
	list.UpdatedAt = ts
	return nil
}

func (l *ListDB) Get(ctx context.Context, id int64) (*model.List, error) {
	var list model.List
	err := l.db.get(ctx, l.db.conn, &list, l.db.sb.Select(listColumns...).From("lists").Where(sq.Eq{"id": id}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("list", id)
		}
		return nil, fmt.Errorf("sqlstore: getting list %d: %w", id, err)
	}
	return &list, nil
}

// GetDetails returns the list with its redacted owner and its items, oldest
// item first.
func (l *ListDB) GetDetails(ctx context.Context, id int64) (*model.ListDetails, error) {
	list, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var owner model.PublicUser
	if err := l.db.get(ctx, l.db.conn, &owner,
		l.db.sb.Select(publicUserColumns...).From("users").Where(sq.Eq{"id": list.UserID})); err != nil {
		return nil, fmt.Errorf("sqlstore: getting owner of list %d: %w", id, err)
	}

	var rows []struct {
		model.ListItem
		FindUserID    int64     `db:"find_user_id"`
		FindTitle     string    `db:"find_title"`
		FindURL       *string   `db:"find_url"`
		FindImageURL  *string   `db:"find_image_url"`
		FindCreatedAt time.Time `db:"find_created_at"`
		FindUpdatedAt time.Time `db:"find_updated_at"`
	}
	err = l.db.selectAll(ctx, l.db.conn, &rows,
		l.db.sb.Select(
			"li.id", "li.list_id", "li.find_id", "li.user_id", "li.created_at",
			"f.user_id AS find_user_id",
			"f.title AS find_title",
			"f.url AS find_url",
			"f.image_url AS find_image_url",
			"f.created_at AS find_created_at",
			"f.updated_at AS find_updated_at",
		).From("list_items li").
			Join("finds f ON f.id = li.find_id").
			Where(sq.Eq{"li.list_id": id}).
			OrderBy("li.created_at ASC", "li.id ASC"))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting items of list %d: %w", id, err)
	}

	details := &model.ListDetails{
		List:  *list,
		User:  owner,
		Items: make([]model.ListItemDetails, len(rows)),
	}
	for i, row := range rows {
		details.Items[i] = model.ListItemDetails{
			ListItem: row.ListItem,
			Find: model.Find{
				ID:        row.FindID,
				UserID:    row.FindUserID,
				Title:     row.FindTitle,
				URL:       row.FindURL,
				ImageURL:  row.FindImageURL,
				CreatedAt: row.FindCreatedAt,
				UpdatedAt: row.FindUpdatedAt,
			},
		}
	}
	return details, nil
}

// ListPublic returns non-private lists, newest first.
func (l *ListDB) ListPublic(ctx context.Context, opts repository.ListOptions) ([]model.List, error) {
	b := l.db.sb.Select(listColumns...).From("lists").
		Where(sq.Eq{"private": false}).
		OrderBy("created_at DESC", "id DESC")
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}

	lists := []model.List{}
	if err := l.db.selectAll(ctx, l.db.conn, &lists, b); err != nil {
		return nil, fmt.Errorf("sqlstore: listing public lists: %w", err)
	}
	return lists, nil
}

func (l *ListDB) ListByUser(ctx context.Context, userID int64, includePrivate bool) ([]model.List, error) {
	b := l.db.sb.Select(listColumns...).From("lists").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if !includePrivate {
		b = b.Where(sq.Eq{"private": false})
	}

	lists := []model.List{}
	if err := l.db.selectAll(ctx, l.db.conn, &lists, b); err != nil {
		return nil, fmt.Errorf("sqlstore: listing lists of user %d: %w", userID, err)
	}
	return lists, nil
}

func (l *ListDB) Update(ctx context.Context, list *model.List) error {
	ts := now()
	n, err := l.db.exec(ctx, l.db.conn, l.db.sb.Update("lists").
		Set("title", list.Title).
		Set("description", list.Description).
		Set("collaborative", list.Collaborative).
		Set("private", list.Private).
		Set("updated_at", ts).
		Where(sq.Eq{"id": list.ID}))
	if err != nil {
		return fmt.Errorf("sqlstore: updating list %d: %w", list.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("list", list.ID)
	}
	list.UpdatedAt = ts
	return nil
}

func (l *ListDB) Delete(ctx context.Context, id int64) error {
	n, err := l.db.exec(ctx, l.db.conn, l.db.sb.Delete("lists").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting list %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("list", id)
	}
	return nil
}

// AddItem places a find in a list. Adding the same find twice fails with a
// unique constraint violation.
func (l *ListDB) AddItem(ctx context.Context, item *model.ListItem) error {
	ts := now()
	id, err := l.db.insert(ctx, l.db.conn, l.db.sb.Insert("list_items").
		Columns("list_id", "find_id", "user_id", "created_at").
		Values(item.ListID, item.FindID, item.UserID, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: adding find %d to list %d: %w", item.FindID, item.ListID, err)
	}
	item.ID = id
	item.CreatedAt = ts
	return nil
}

func (l *ListDB) RemoveItem(ctx context.Context, listID, findID int64) error {
	n, err := l.db.exec(ctx, l.db.conn, l.db.sb.Delete("list_items").
		Where(sq.Eq{"list_id": listID, "find_id": findID}))
	if err != nil {
		return fmt.Errorf("sqlstore: removing find %d from list %d: %w", findID, listID, err)
	}
	if n == 0 {
		return apperror.NotFoundMessage(fmt.Sprintf("find %d is not in list %d", findID, listID))
	}
	return nil
}
