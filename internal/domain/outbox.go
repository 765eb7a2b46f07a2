package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusDispatched OutboxStatus = "dispatched"
	OutboxStatusFailed     OutboxStatus = "failed"
)

type OutboxEventType string

const (
	EventTransactionPosted OutboxEventType = "ledger.transaction_posted"
	EventPointsEarned      OutboxEventType = "loyalty.points_earned"
	EventPointsRedeemed    OutboxEventType = "loyalty.points_redeemed"
)

type OutboxEvent struct {
	ID          uuid.UUID
	EventType   OutboxEventType
	AggregateID uuid.UUID
	Payload     json.RawMessage
	Status      OutboxStatus
	Attempts    int
	LastAttempt *time.Time
	CreatedAt   time.Time
}
