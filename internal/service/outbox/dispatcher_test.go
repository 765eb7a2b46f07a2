package outbox

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

type fakeOutbox struct {
	pending  []domain.OutboxEvent
	statuses map[uuid.UUID]domain.OutboxStatus
}

func (f *fakeOutbox) ClaimPending(_ context.Context, _ *sql.Tx, limit int) ([]domain.OutboxEvent, error) {
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}

func (f *fakeOutbox) UpdateStatus(_ context.Context, _ *sql.Tx, id uuid.UUID, status domain.OutboxStatus) error {
	f.statuses[id] = status
	return nil
}

type fakePublisher struct {
	failFor map[uuid.UUID]bool
	sent    []uuid.UUID
}

func (f *fakePublisher) Publish(_ context.Context, e domain.OutboxEvent) error {
	if f.failFor[e.ID] {
		return errors.New("broker unavailable")
	}
	f.sent = append(f.sent, e.ID)
	return nil
}

func newTestDispatcher(t *testing.T, repo *fakeOutbox, pub *fakePublisher) (*Dispatcher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(repo, pub, db, logger, time.Second, 10), mock
}

func pendingEvent(attempts int) domain.OutboxEvent {
	return domain.OutboxEvent{
		ID:          uuid.New(),
		EventType:   domain.EventTransactionPosted,
		AggregateID: uuid.New(),
		Payload:     []byte(`{}`),
		Status:      domain.OutboxStatusPending,
		Attempts:    attempts,
	}
}

func TestDispatchOnce(t *testing.T) {
	ok := pendingEvent(0)
	retry := pendingEvent(1)
	giveUp := pendingEvent(maxAttempts - 1)

	repo := &fakeOutbox{
		pending:  []domain.OutboxEvent{ok, retry, giveUp},
		statuses: map[uuid.UUID]domain.OutboxStatus{},
	}
	pub := &fakePublisher{failFor: map[uuid.UUID]bool{retry.ID: true, giveUp.ID: true}}
	d, mock := newTestDispatcher(t, repo, pub)

	mock.ExpectBegin()
	mock.ExpectCommit()

	delivered, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []uuid.UUID{ok.ID}, pub.sent)
	assert.Equal(t, domain.OutboxStatusDispatched, repo.statuses[ok.ID])
	assert.Equal(t, domain.OutboxStatusPending, repo.statuses[retry.ID])
	assert.Equal(t, domain.OutboxStatusFailed, repo.statuses[giveUp.ID])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchOnce_NothingPending(t *testing.T) {
	repo := &fakeOutbox{statuses: map[uuid.UUID]domain.OutboxStatus{}}
	d, mock := newTestDispatcher(t, repo, &fakePublisher{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	delivered, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, delivered)
	require.NoError(t, mock.ExpectationsWereMet())
}
