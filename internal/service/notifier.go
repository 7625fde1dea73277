package service

import (
	"context"
	"log/slog"

	"github.com/sakif/findsboard/internal/model"
	"github.com/sakif/findsboard/internal/repository"
)

// Notifier delivers notifications to the subscribers of a target.
//
// BEST EFFORT:
// Notify never returns an error. A failed lookup or insert is logged and the
// remaining subscribers are still attempted; the write that triggered the
// notification has already succeeded and must not be reported as failed.
type Notifier struct {
	subscriptions repository.SubscriptionRepository
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

func NewNotifier(
	subscriptions repository.SubscriptionRepository,
	notifications repository.NotificationRepository,
	logger *slog.Logger,
) *Notifier {
	return &Notifier{
		subscriptions: subscriptions,
		notifications: notifications,
		logger:        logger,
	}
}

// Notify sends message to every subscriber of (target, targetID) except the
// actor who caused the event. It returns how many notifications were written.
func (n *Notifier) Notify(ctx context.Context, actorID int64, target model.SubscriptionTarget, targetID int64, message string) int {
	subs, err := n.subscriptions.Subscribers(ctx, target, targetID)
	if err != nil {
		n.logger.Error("loading subscribers",
			slog.String("target", string(target)),
			slog.Int64("targetID", targetID),
			slog.String("error", err.Error()),
		)
		return 0
	}

	sent := 0
	notified := make(map[int64]bool, len(subs))
	for _, sub := range subs {
		if sub.UserID == actorID || notified[sub.UserID] {
			continue
		}
		notification := &model.Notification{
			UserID:         sub.UserID,
			Message:        message,
			SubscriptionID: sub.ID,
		}
		if err := n.notifications.Create(ctx, notification); err != nil {
			n.logger.Error("writing notification",
				slog.Int64("subscriptionID", sub.ID),
				slog.Int64("userID", sub.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		notified[sub.UserID] = true
		sent++
	}
	return sent
}
