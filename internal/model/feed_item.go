package model

import "time"

// FeedItem is a status update owned by exactly one UserProfile.
type FeedItem struct {
	ID            string    `json:"id"`
	UserProfileID string    `json:"user_profile"`
	StatusText    string    `json:"status_text"`
	CreatedOn     time.Time `json:"created_on"`
}

// String returns the status text of the item.
func (f *FeedItem) String() string {
	return f.StatusText
}

// MaxStatusTextLen is the maximum length of a feed item's status text.
const MaxStatusTextLen = 255
