package dto

import (
	"github.com/profilesapi/profiles/internal/model"
)

// ProfileRequest is the body of profile create, replace and partial update.
// Password is write-only and never echoed back.
type ProfileRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// ProfileResponse represents a profile in API responses.
type ProfileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ProfileListResponse represents a paginated list of profiles.
type ProfileListResponse struct {
	Data       []ProfileResponse `json:"data"`
	Pagination *Pagination       `json:"pagination"`
}

// ToProfileResponse converts a UserProfile model to its DTO.
func ToProfileResponse(u *model.UserProfile) *ProfileResponse {
	return &ProfileResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

// ToProfileListResponse converts a page of profiles.
func ToProfileListResponse(users []*model.UserProfile, nextCursor string) *ProfileListResponse {
	data := make([]ProfileResponse, len(users))
	for i, u := range users {
		data[i] = *ToProfileResponse(u)
	}
	return &ProfileListResponse{Data: data, Pagination: NewPagination(nextCursor)}
}

// deref returns the pointed-to string or "".
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Values returns the email, name and password with missing fields as "".
func (r ProfileRequest) Values() (email, name, password string) {
	return deref(r.Email), deref(r.Name), deref(r.Password)
}
