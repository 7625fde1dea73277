package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.EmojiRepository = (*EmojiDB)(nil)

type EmojiDB struct {
	db *DB
}

var emojiColumns = []string{"id", "name", "user_id", "image_url", "created_at", "updated_at"}

// Create stores a new emoji. Names are unique; a taken name fails with a
// unique constraint violation.
func (e *EmojiDB) Create(ctx context.Context, emoji *model.CustomEmoji) error {
	ts := now()
	id, err := e.db.insert(ctx, e.db.conn, e.db.sb.Insert("custom_emoji").
		Columns("name", "user_id", "image_url", "created_at", "updated_at").
		Values(emoji.Name, emoji.UserID, emoji.ImageURL, ts, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating emoji %q: %w", emoji.Name, err)
	}
	emoji.ID = id
	emoji.CreatedAt = ts
	emoji.UpdatedAt = ts
	return nil
}

func (e *EmojiDB) GetByID(ctx context.Context, id int64) (*model.CustomEmoji, error) {
	var emoji model.CustomEmoji
	err := e.db.get(ctx, e.db.conn, &emoji, e.db.sb.Select(emojiColumns...).From("custom_emoji").Where(sq.Eq{"id": id}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("emoji", id)
		}
		return nil, fmt.Errorf("sqlstore: getting emoji %d: %w", id, err)
	}
	return &emoji, nil
}

func (e *EmojiDB) List(ctx context.Context) ([]model.CustomEmoji, error) {
	emoji := []model.CustomEmoji{}
	if err := e.db.selectAll(ctx, e.db.conn, &emoji,
		e.db.sb.Select(emojiColumns...).From("custom_emoji").OrderBy("name ASC")); err != nil {
		return nil, fmt.Errorf("sqlstore: listing emoji: %w", err)
	}
	return emoji, nil
}

func (e *EmojiDB) Delete(ctx context.Context, id int64) error {
	n, err := e.db.exec(ctx, e.db.conn, e.db.sb.Delete("custom_emoji").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting emoji %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("emoji", id)
	}
	return nil
}
