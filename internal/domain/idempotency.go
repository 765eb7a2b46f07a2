package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord is a stored response replayed for a repeated
// Idempotency-Key from the same user.
type IdempotencyRecord struct {
	Key          string
	UserID       uuid.UUID
	RequestHash  string
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
