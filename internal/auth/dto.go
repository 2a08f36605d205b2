package auth

import (
	"time"

	"github.com/google/uuid"
)

// SignupRequest contains the payload for creating an account.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest contains the credentials for a login attempt.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupResult reports the created account.
type SignupResult struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// Profile is the public view of the authenticated account.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult carries the profile and the bearer token for the session.
type LoginResult struct {
	User        Profile `json:"user"`
	AccessToken string  `json:"access_token"`
}
