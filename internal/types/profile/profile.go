package profile

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors a row in the users table. Rows are created and kept in sync
// by the Clerk webhook, never by the API itself.
type User struct {
	ID            uuid.UUID `json:"id"`
	ClerkID       string    `json:"clerkId"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Skills        []string  `json:"skills"`
	Reputation    int       `json:"reputation"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// PublicProfile is the reduced projection returned by the
// get_public_profile_data database function. It is the only shape of another
// user's row that ever leaves the API.
type PublicProfile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Skills     []string  `json:"skills"`
	Reputation int       `json:"reputation"`
}

// Snapshot is the minimal profile view attached to connections, messages and
// conversation listings.
type Snapshot struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type CreateUserRequest struct {
	ClerkID   string `json:"clerkId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type UpdateProfileRequest struct {
	Name      string   `json:"name,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills,omitempty"`
}
