package dto

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the plaintext token. It is shown only once.
type LoginResponse struct {
	Token   string           `json:"token"`
	Profile *ProfileResponse `json:"profile"`
}
