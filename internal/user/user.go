package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/tasktracker/internal/core/datamodel/user"
)

// ErrDuplicate is returned by the repository when a unique constraint on
// users or device tokens is hit.
var ErrDuplicate = errors.New("duplicate record")

type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Profile is the authenticated user's own view, including the permissions
// resolved across all of their groups.
type Profile struct {
	User
	Permissions []string `json:"permissions"`
}

type DeviceToken struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.PhoneCanonical,
		PhoneVerified: u.PhoneVerified,
		CreatedAt:     u.CreatedAt,
	}
}
