package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/findsboard/internal/apperror"
	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

var _ repository.NotificationRepository = (*NotificationDB)(nil)

// NotificationDB stores notifications.
type NotificationDB struct {
	db *DB
}

var notificationColumns = []string{"id", "user_id", "message", "subscription_id", "read", "created_at"}

func (n *NotificationDB) Create(ctx context.Context, notification *model.Notification) error {
	ts := now()
	id, err := n.db.insert(ctx, n.db.conn, n.db.sb.Insert("notifications").
		Columns("user_id", "message", "subscription_id", "read", "created_at").
		Values(notification.UserID, notification.Message, notification.SubscriptionID, false, ts))
	if err != nil {
		return fmt.Errorf("sqlstore: creating notification for user %d: %w", notification.UserID, err)
	}

	notification.ID = id
	notification.Read = false
	notification.CreatedAt = ts
	return nil
}

// ListByUser returns the user's notifications, newest first.
func (n *NotificationDB) ListByUser(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Notification, error) {
	b := n.db.sb.Select(notificationColumns...).From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit)).Offset(uint64(opts.Offset))
	}

	notifications := []model.Notification{}
	if err := n.db.selectAll(ctx, n.db.conn, &notifications, b); err != nil {
		return nil, fmt.Errorf("sqlstore: listing notifications of user %d: %w", userID, err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read. A notification that
// belongs to someone else is reported as not found.
func (n *NotificationDB) MarkRead(ctx context.Context, id, userID int64) error {
	affected, err := n.db.exec(ctx, n.db.conn, n.db.sb.Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return fmt.Errorf("sqlstore: marking notification %d read: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("notification", id)
	}
	return nil
}
