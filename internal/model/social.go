package model

import "time"

// CommentTarget names the kind of entity a comment is attached to. Each
// target kind is stored in its own table.
type CommentTarget string

const (
	CommentOnFind   CommentTarget = "find"
	CommentOnReview CommentTarget = "review"
	CommentOnList   CommentTarget = "list"
)

type Comment struct {
	ID        int64         `json:"id"        db:"id"`
	Target    CommentTarget `json:"target"    db:"-"`
	TargetID  int64         `json:"targetId"  db:"target_id"`
	UserID    int64         `json:"userId"    db:"user_id"`
	Content   string        `json:"content"   db:"content"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"`
}

// SubscriptionTarget names what a subscription watches.
type SubscriptionTarget string

const (
	SubscribeFind        SubscriptionTarget = "find"
	SubscribeReview      SubscriptionTarget = "review"
	SubscribeTag         SubscriptionTarget = "tag"
	SubscribeUser        SubscriptionTarget = "user"
	SubscribeList        SubscriptionTarget = "list"
	SubscribeListChanges SubscriptionTarget = "list_changes"
)

// SubscriptionTargets lists every target kind in a stable order.
var SubscriptionTargets = []SubscriptionTarget{
	SubscribeFind,
	SubscribeReview,
	SubscribeTag,
	SubscribeUser,
	SubscribeList,
	SubscribeListChanges,
}

// Valid reports whether t is a known subscription target.
func (t SubscriptionTarget) Valid() bool {
	for _, known := range SubscriptionTargets {
		if t == known {
			return true
		}
	}
	return false
}

// Subscription is a user's standing interest in one entity.
type Subscription struct {
	ID        int64              `json:"id"        db:"id"`
	UserID    int64              `json:"userId"    db:"user_id"`
	Target    SubscriptionTarget `json:"target"    db:"target"`
	TargetID  int64              `json:"targetId"  db:"target_id"`
	CreatedAt time.Time          `json:"createdAt" db:"created_at"`
}

// Notification is a message delivered to a user through one of their
// subscriptions. It is removed together with the subscription.
type Notification struct {
	ID             int64     `json:"id"             db:"id"`
	UserID         int64     `json:"userId"         db:"user_id"`
	Message        string    `json:"message"        db:"message"`
	SubscriptionID int64     `json:"subscriptionId" db:"subscription_id"`
	Read           bool      `json:"read"           db:"read"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}

// CustomEmoji is a named image uploaded by a user.
type CustomEmoji struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	UserID    int64     `json:"userId"    db:"user_id"`
	ImageURL  string    `json:"imageUrl"  db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
