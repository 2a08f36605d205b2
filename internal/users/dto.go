package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmarchan/fieldrent-backend/pkg/db/models"
)

// UserResponse is the public user representation. The password hash never
// leaves the package.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// UserList wraps a directory listing.
type UserList struct {
	Users []UserResponse `json:"users"`
}

// DeleteUserResult reports the removed user.
type DeleteUserResult struct {
	UserID uuid.UUID `json:"user_id"`
}

func toResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}
}
