package model

import "time"

// Rating is a reviewer's verdict on a find.
type Rating string

const (
	RatingGood    Rating = "good"
	RatingNeutral Rating = "neutral"
	RatingBad     Rating = "bad"
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingGood, RatingNeutral, RatingBad:
		return true
	}
	return false
}

// Review is one user's opinion of one find. A user may review the same find
// more than once.
type Review struct {
	ID        int64     `json:"id"        db:"id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	FindID    int64     `json:"findId"    db:"find_id"`
	Rating    Rating    `json:"rating"    db:"rating"`
	Content   *string   `json:"content"   db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ReviewDetails is a review with its redacted author.
type ReviewDetails struct {
	Review
	User PublicUser `json:"user"`
}
