package model

import "time"

// Log is one append-only audit entry.
//
// UserID is nil for system events and for entries whose user has since been
// deleted: the row outlives the account. Meta is an opaque JSON document.
type Log struct {
	ID        int64     `json:"id"        db:"id"`
	UserID    *int64    `json:"userId"    db:"user_id"`
	Message   string    `json:"message"   db:"message"`
	Meta      *string   `json:"meta"      db:"meta"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Stats holds row counts for the main entities.
type Stats struct {
	UsersCount   int64 `json:"usersCount"`
	FindsCount   int64 `json:"findsCount"`
	ReviewsCount int64 `json:"reviewsCount"`
	ListsCount   int64 `json:"listsCount"`
	TagsCount    int64 `json:"tagsCount"`
}

// SearchResults groups the matches of one search term across entities.
type SearchResults struct {
	Finds   []FindDetails   `json:"finds"`
	Reviews []ReviewDetails `json:"reviews"`
	Tags    []Tag           `json:"tags"`
	Users   []PublicUser    `json:"users"`
}
