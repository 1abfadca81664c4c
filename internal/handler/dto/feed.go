package dto

import (
	"time"

	"github.com/profilesapi/profiles/internal/model"
)

// FeedItemRequest is the body of feed item create and update. The owner is
// always the caller, so a user_profile field in the body is ignored.
type FeedItemRequest struct {
	StatusText *string `json:"status_text"`
}

// FeedItemResponse represents a feed item in API responses.
type FeedItemResponse struct {
	ID          string    `json:"id"`
	UserProfile string    `json:"user_profile"`
	StatusText  string    `json:"status_text"`
	CreatedOn   time.Time `json:"created_on"`
}

// FeedItemListResponse represents a paginated list of feed items.
type FeedItemListResponse struct {
	Data       []FeedItemResponse `json:"data"`
	Pagination *Pagination        `json:"pagination"`
}

// ToFeedItemResponse converts a FeedItem model to its DTO.
func ToFeedItemResponse(item *model.FeedItem) *FeedItemResponse {
	return &FeedItemResponse{
		ID:          item.ID,
		UserProfile: item.UserProfileID,
		StatusText:  item.StatusText,
		CreatedOn:   item.CreatedOn,
	}
}

// ToFeedItemListResponse converts a page of feed items.
func ToFeedItemListResponse(items []*model.FeedItem, nextCursor string) *FeedItemListResponse {
	data := make([]FeedItemResponse, len(items))
	for i, item := range items {
		data[i] = *ToFeedItemResponse(item)
	}
	return &FeedItemListResponse{Data: data, Pagination: NewPagination(nextCursor)}
}
