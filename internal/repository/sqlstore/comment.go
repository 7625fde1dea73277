package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.CommentRepository = (*CommentDB)(nil)

// CommentDB stores comments. Each target kind has its own table so the
// foreign key on the target column can cascade.
type CommentDB struct {
	db *DB
}

type commentTable struct {
	name   string
	column string
}

var commentTables = map[model.CommentTarget]commentTable{
	model.CommentOnFind:   {name: "find_comments", column: "find_id"},
	model.CommentOnReview: {name: "review_comments", column: "review_id"},
	model.CommentOnList:   {name: "list_comments", column: "list_id"},
}

func tableFor(target model.CommentTarget) (commentTable, error) {
	t, ok := commentTables[target]
	if !ok {
		return commentTable{}, apperror.ValidationFailed("target", fmt.Sprintf("unknown comment target %q", target))
	}
	return t, nil
}

func (c *CommentDB) query(t commentTable) sq.SelectBuilder {
	return c.db.sb.Select("id", "user_id", t.column+" AS target_id", "content", "created_at", "updated_at").From(t.name)
}

func (c *CommentDB) Create(ctx context.Context, comment *model.Comment) error {
	t, err := tableFor(comment.Target)
	if err != nil {
		return err
	}

	ts := now()
	id, err := c.db.insert(ctx, c.db.conn, c.db.sb.Insert(t.name).
		Columns("user_id", t.column, "content", "created_at", "updated_at").
		Values(comment.UserID, comment.TargetID, comment.Content, ts, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating %s comment: %w", comment.Target, err)
	}

	comment.ID = id
	comment.CreatedAt = ts
	comment.UpdatedAt = ts
	return nil
}

func (c *CommentDB) GetByID(ctx context.Context, target model.CommentTarget, id int64) (*model.Comment, error) {
	t, err := tableFor(target)
	if err != nil {
		return nil, err
	}

	var comment model.Comment
	if err := c.db.get(ctx, c.db.conn, &comment, c.query(t).Where(sq.Eq{"id": id})); err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlstore: getting %s comment %d: %w", target, id, err)
	}
	comment.Target = target
	return &comment, nil
}

// List returns the comments on one target, oldest first.
func (c *CommentDB) List(ctx context.Context, target model.CommentTarget, targetID int64) ([]model.Comment, error) {
	t, err := tableFor(target)
	if err != nil {
		return nil, err
	}

	comments := []model.Comment{}
	if err := c.db.selectAll(ctx, c.db.conn, &comments,
		c.query(t).Where(sq.Eq{t.column: targetID}).OrderBy("created_at ASC", "id ASC")); err != nil {
		return nil, fmt.Errorf("sqlstore: listing %s comments: %w", target, err)
	}
	for i := range comments {
		comments[i].Target = target
	}
	return comments, nil
}

func (c *CommentDB) Delete(ctx context.Context, target model.CommentTarget, id int64) error {
	t, err := tableFor(target)
	if err != nil {
		return err
	}

	n, err := c.db.exec(ctx, c.db.conn, c.db.sb.Delete(t.name).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting %s comment %d: %w", target, id, err)
	}
	if n == 0 {
		return apperror.NotFound("comment", id)
	}
	return nil
}
