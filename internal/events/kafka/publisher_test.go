package kafka

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

func TestMessageFor(t *testing.T) {
	event := domain.OutboxEvent{
		ID:          uuid.New(),
		EventType:   domain.EventTransactionPosted,
		AggregateID: uuid.New(),
		Payload:     []byte(`{"transaction_id":"x"}`),
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	msg := messageFor("bizledger.", event)

	assert.Equal(t, "bizledger.ledger.transaction_posted", msg.Topic)
	assert.Equal(t, event.AggregateID.String(), string(msg.Key))
	assert.JSONEq(t, `{"transaction_id":"x"}`, string(msg.Value))
	assert.Equal(t, event.CreatedAt, msg.Time)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, event.ID.String(), string(msg.Headers[0].Value))
}
