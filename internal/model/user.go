package model

import "time"

// User represents a user in the database.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,max=150,username"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserResponse strips a user down to its public identity.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// UserEnvelope wraps the current user.
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// MessageResponse is a bare success message.
type MessageResponse struct {
	Message string `json:"message"`
}

// CSRFResponse carries a freshly issued CSRF token.
type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}
