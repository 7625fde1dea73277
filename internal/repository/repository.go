package repository

import (
	"context"

	"github.com/sakif/findsboard/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// SortField is a whitelisted column a find listing can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FindQuery filters and orders a page of finds. Empty filters match
// everything; at most one of Title, Username and Tag is normally set.
type FindQuery struct {
	ListOptions
	UserID    int64
	Title     string
	Username  string
	Tag       string
	SortBy    SortField
	SortOrder SortOrder
}

// Entity names a table that can be counted.
type Entity string

const (
	EntityUsers   Entity = "users"
	EntityFinds   Entity = "finds"
	EntityReviews Entity = "reviews"
	EntityLists   Entity = "lists"
	EntityTags    Entity = "tags"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*model.User, error)
	// RecordLogin refreshes last_login and, when email is non-nil, replaces
	// the stored email.
	RecordLogin(ctx context.Context, id int64, email *string) error
	List(ctx context.Context, opts ListOptions) ([]model.PublicUser, error)
	Search(ctx context.Context, term string, limit int) ([]model.PublicUser, error)
	SetRole(ctx context.Context, id int64, role model.Role) error
	Delete(ctx context.Context, id int64) error
}

type FindRepository interface {
	// Create inserts the find and links it to the named tags, creating tags
	// that do not exist yet, in one transaction.
	Create(ctx context.Context, find *model.Find, tags []string) error
	Get(ctx context.Context, id int64) (*model.Find, error)
	GetDetails(ctx context.Context, id int64) (*model.FindDetails, error)
	List(ctx context.Context, q FindQuery) ([]model.FindDetails, error)
	// Update writes title, url and image_url. A nil tags slice leaves the
	// tag links alone; a non-nil one replaces them.
	Update(ctx context.Context, find *model.Find, tags []string) error
	Delete(ctx context.Context, id int64) error
	AttachTag(ctx context.Context, findID, tagID int64) error
	DetachTag(ctx context.Context, findID, tagID int64) error
}

type TagRepository interface {
	GetOrCreate(ctx context.Context, name string) (*model.Tag, error)
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
	GetByName(ctx context.Context, name string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
	Search(ctx context.Context, term string, limit int) ([]model.Tag, error)
	Delete(ctx context.Context, id int64) error
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id int64) (*model.ReviewDetails, error)
	List(ctx context.Context, opts ListOptions) ([]model.ReviewDetails, error)
	ListByFind(ctx context.Context, findID int64) ([]model.ReviewDetails, error)
	Search(ctx context.Context, term string, limit int) ([]model.ReviewDetails, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id int64) error
}

type ListRepository interface {
	Create(ctx context.Context, list *model.List) error
	Get(ctx context.Context, id int64) (*model.List, error)
	GetDetails(ctx context.Context, id int64) (*model.ListDetails, error)
	ListPublic(ctx context.Context, opts ListOptions) ([]model.List, error)
	ListByUser(ctx context.Context, userID int64, includePrivate bool) ([]model.List, error)
	Update(ctx context.Context, list *model.List) error
	Delete(ctx context.Context, id int64) error
	AddItem(ctx context.Context, item *model.ListItem) error
	RemoveItem(ctx context.Context, listID, findID int64) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, target model.CommentTarget, id int64) (*model.Comment, error)
	List(ctx context.Context, target model.CommentTarget, targetID int64) ([]model.Comment, error)
	Delete(ctx context.Context, target model.CommentTarget, id int64) error
}

type SubscriptionRepository interface {
	// Subscribe creates the subscription row and its target link in one
	// transaction.
	Subscribe(ctx context.Context, sub *model.Subscription) error
	GetByID(ctx context.Context, id int64) (*model.Subscription, error)
	Find(ctx context.Context, userID int64, target model.SubscriptionTarget, targetID int64) (*model.Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Subscription, error)
	Subscribers(ctx context.Context, target model.SubscriptionTarget, targetID int64) ([]model.Subscription, error)
	Delete(ctx context.Context, id int64) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID int64, opts ListOptions) ([]model.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type LogRepository interface {
	Create(ctx context.Context, entry *model.Log) error
	GetByID(ctx context.Context, id int64) (*model.Log, error)
	List(ctx context.Context, opts ListOptions) ([]model.Log, error)
}

type EmojiRepository interface {
	Create(ctx context.Context, emoji *model.CustomEmoji) error
	GetByID(ctx context.Context, id int64) (*model.CustomEmoji, error)
	List(ctx context.Context) ([]model.CustomEmoji, error)
	Delete(ctx context.Context, id int64) error
}

type StatsRepository interface {
	Count(ctx context.Context, entity Entity) (int64, error)
	CountByUser(ctx context.Context, entity Entity, userID int64) (int64, error)
}
