package user

import (
	"time"

	"github.com/DhavalSuthar-24/stepsquad/internal/identity"
)

// User is created on first successful authentication and never deleted.
type User struct {
	UserID    string        `json:"uid"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
