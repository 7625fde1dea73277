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

var _ repository.SubscriptionRepository = (*SubscriptionDB)(nil)

// SubscriptionDB stores subscriptions.
//
// A subscription is one row in subscriptions plus exactly one row in the join
// table of its target kind. Reads go through each join table in turn rather
// than a UNION so every query keeps its columns' declared types.
type SubscriptionDB struct {
	db *DB
}

type subscriptionTable struct {
	name   string
	column string
}

var subscriptionTables = map[model.SubscriptionTarget]subscriptionTable{
	model.SubscribeFind:        {name: "subscriptions_to_finds", column: "find_id"},
	model.SubscribeReview:      {name: "subscriptions_to_reviews", column: "review_id"},
	model.SubscribeTag:         {name: "subscriptions_to_tags", column: "tag_id"},
	model.SubscribeUser:        {name: "subscriptions_to_users", column: "user_id"},
	model.SubscribeList:        {name: "subscriptions_to_lists", column: "list_id"},
	model.SubscribeListChanges: {name: "subscriptions_to_list_changes", column: "list_id"},
}

func subscriptionTableFor(target model.SubscriptionTarget) (subscriptionTable, error) {
	t, ok := subscriptionTables[target]
	if !ok {
		return subscriptionTable{}, apperror.ValidationFailed("target", fmt.Sprintf("unknown subscription target %q", target))
	}
	return t, nil
}

// query selects subscriptions of one target kind.
func (s *SubscriptionDB) query(t subscriptionTable) sq.SelectBuilder {
	return s.db.sb.Select("s.id", "s.user_id", "s.created_at", "j."+t.column+" AS target_id").
		From("subscriptions s").
		Join(t.name + " j ON j.subscription_id = s.id")
}

// collect runs the query built by where against every target kind.
func (s *SubscriptionDB) collect(ctx context.Context, where sq.Sqlizer) ([]model.Subscription, error) {
	subs := []model.Subscription{}
	for _, target := range model.SubscriptionTargets {
		t := subscriptionTables[target]
		var batch []model.Subscription
		if err := s.db.selectAll(ctx, s.db.conn, &batch, s.query(t).Where(where).OrderBy("s.id ASC")); err != nil {
			return nil, err
		}
		for i := range batch {
			batch[i].Target = target
		}
		subs = append(subs, batch...)
	}
	return subs, nil
}

func (s *SubscriptionDB) Subscribe(ctx context.Context, sub *model.Subscription) error {
	t, err := subscriptionTableFor(sub.Target)
	if err != nil {
		return err
	}

	ts := now()
	err = s.db.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := s.db.insert(ctx, tx, s.db.sb.Insert("subscriptions").
			Columns("user_id", "created_at").
			Values(sub.UserID, ts))
		if err != nil {
			return err
		}
		sub.ID = id

		_, err = s.db.exec(ctx, tx, s.db.sb.Insert(t.name).
			Columns("subscription_id", t.column).
			Values(id, sub.TargetID))
		return err
	})
	if err != nil {
		return fmt.Errorf("sqlstore: subscribing user %d to %s %d: %w", sub.UserID, sub.Target, sub.TargetID, err)
	}

	sub.CreatedAt = ts
	return nil
}

func (s *SubscriptionDB) GetByID(ctx context.Context, id int64) (*model.Subscription, error) {
	subs, err := s.collect(ctx, sq.Eq{"s.id": id})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: getting subscription %d: %w", id, err)
	}
	if len(subs) == 0 {
		return nil, apperror.NotFound("subscription", id)
	}
	return &subs[0], nil
}

// Find returns the user's subscription to one target, if there is one.
func (s *SubscriptionDB) Find(ctx context.Context, userID int64, target model.SubscriptionTarget, targetID int64) (*model.Subscription, error) {
	t, err := subscriptionTableFor(target)
	if err != nil {
		return nil, err
	}

	var sub model.Subscription
	err = s.db.get(ctx, s.db.conn, &sub,
		s.query(t).Where(sq.Eq{"s.user_id": userID, "j." + t.column: targetID}).OrderBy("s.id ASC").Limit(1))
	if err != nil {
		if isNoRows(err) {
			return nil, apperror.NotFoundMessage(fmt.Sprintf("no subscription to %s %d", target, targetID))
		}
		return nil, fmt.Errorf("sqlstore: finding subscription: %w", err)
	}
	sub.Target = target
	return &sub, nil
}

func (s *SubscriptionDB) ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error) {
	subs, err := s.collect(ctx, sq.Eq{"s.user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing subscriptions of user %d: %w", userID, err)
	}
	return subs, nil
}

// Subscribers returns every subscription watching one target.
func (s *SubscriptionDB) Subscribers(ctx context.Context, target model.SubscriptionTarget, targetID int64) ([]model.Subscription, error) {
	t, err := subscriptionTableFor(target)
	if err != nil {
		return nil, err
	}

	subs := []model.Subscription{}
	if err := s.db.selectAll(ctx, s.db.conn, &subs,
		s.query(t).Where(sq.Eq{"j." + t.column: targetID}).OrderBy("s.id ASC")); err != nil {
		return nil, fmt.Errorf("sqlstore: listing subscribers of %s %d: %w", target, targetID, err)
	}
	for i := range subs {
		subs[i].Target = target
	}
	return subs, nil
}

// Delete removes the subscription, its target link and its notifications.
func (s *SubscriptionDB) Delete(ctx context.Context, id int64) error {
	n, err := s.db.exec(ctx, s.db.conn, s.db.sb.Delete("subscriptions").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlstore: deleting subscription %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("subscription", id)
	}
	return nil
}
