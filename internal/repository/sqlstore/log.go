package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.LogRepository = (*LogDB)(nil)

// LogDB stores the activity log. Entries are never updated.
type LogDB struct {
	db *DB
}

var logColumns = []string{"id", "user_id", "message", "meta", "timestamp"}

func (l *LogDB) Create(ctx context.Context, entry *model.Log) error {
	ts := now()
	id, err := l.db.insert(ctx, l.db.conn, l.db.sb.Insert("logs").
		Columns("user_id", "message", "meta", "timestamp").
		Values(entry.UserID, entry.Message, entry.Meta, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating log entry: %w", err)
	}
	entry.ID = id
	entry.Timestamp = ts
	return nil
}

func (l *LogDB) GetByID(ctx context.Context, id int64) (*model.Log, error) {
	var entry model.Log
	err := l.db.get(ctx, l.db.conn, &entry, l.db.sb.Select(logColumns...).From("logs").Where(sq.Eq{"id": id}))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFound("log", id)
		}
		return nil, fmt.Errorf("sqlstore: getting log %d: %w", id, err)
	}
	return &entry, nil
}

// List returns log entries, newest first.
func (l *LogDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Log, error) {
	b := l.db.sb.Select(logColumns...).From("logs").OrderBy("timestamp DESC", "id DESC")
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}

	entries := []model.Log{}
	if err := l.db.selectAll(ctx, l.db.conn, &entries, b); err != nil {
		return nil, fmt.Errorf("sqlstore: listing logs: %w", err)
	}
	return entries, nil
}
