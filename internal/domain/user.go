package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusClosed    UserStatus = "closed"
)

// SystemUserID is the actor recorded for scheduled and CLI maintenance runs.
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Permissions  []string
	Status       UserStatus
	CreatedAt    time.Time
}
