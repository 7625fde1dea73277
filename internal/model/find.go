package model

import "time"

// Find is a shared post: something a user found and wants to recommend.
//
// URL and ImageURL are optional. When present they have already been checked
// to parse as absolute URLs by the service layer.
type Find struct {
	ID        int64     `json:"id"        db:"id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	Title     string    `json:"title"     db:"title"`
	URL       *string   `json:"url"       db:"url"`
	ImageURL  *string   `json:"imageUrl"  db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FindDetails is a find together with its redacted owner and its tags.
type FindDetails struct {
	Find
	User PublicUser `json:"user"`
	Tags []Tag      `json:"tags"`
}

// Tag is a shared label. Tags have their own lifecycle: deleting one only
// detaches it from finds.
type Tag struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
