package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser     = "user"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	HashedPassword string
	Role           string
	Phone          *string // nil if not provided
}

// Identity asserted by a valid access token
// It is built from token claims only, so the user may be deleted already
type Identity struct {
	UserID uuid.UUID
	Role   string
}
