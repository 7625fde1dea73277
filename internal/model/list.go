package model

import "time"

// List is a user-curated collection of finds.
//
// A collaborative list accepts items from any authenticated user; a private
// list is only visible to its owner.
type List struct {
	ID            int64     `json:"id"            db:"id"`
	UserID        int64     `json:"userId"        db:"user_id"`
	Title         string    `json:"title"         db:"title"`
	Description   *string   `json:"description"   db:"description"`
	Collaborative bool      `json:"collaborative" db:"collaborative"`
	Private       bool      `json:"private"       db:"private"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// ListItem places a find into a list. UserID is whoever added it, which for
// collaborative lists need not be the list owner.
type ListItem struct {
	ID        int64     `json:"id"        db:"id"`
	ListID    int64     `json:"listId"    db:"list_id"`
	FindID    int64     `json:"findId"    db:"find_id"`
	UserID    int64     `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ListItemDetails is a list item with the find it points at.
type ListItemDetails struct {
	ListItem
	Find Find `json:"find"`
}

// ListDetails is a list with its redacted owner and its items.
type ListDetails struct {
	List
	User  PublicUser        `json:"user"`
	Items []ListItemDetails `json:"items"`
}
