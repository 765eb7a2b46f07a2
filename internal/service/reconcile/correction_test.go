package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

func TestCorrectionFor(t *testing.T) {
	tests := []struct {
		name          string
		debits        string
		credits       string
		wantDirection domain.Direction
		wantAmount    string
	}{
		{"debits exceed credits", "100", "80", domain.DirectionCredit, "20"},
		{"credits exceed debits", "50", "75.5", domain.DirectionDebit, "25.5"},
		{"missing credit side", "10", "0", domain.DirectionCredit, "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debits := decimal.RequireFromString(tt.debits)
			credits := decimal.RequireFromString(tt.credits)

			direction, amount := correctionFor(debits, credits)
			assert.Equal(t, tt.wantDirection, direction)
			assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(amount), "amount %s", amount)

			if direction == domain.DirectionDebit {
				debits = debits.Add(amount)
			} else {
				credits = credits.Add(amount)
			}
			assert.True(t, domain.WithinTolerance(debits, credits))
		})
	}
}

type fakeReconciler struct {
	calls  atomic.Int32
	report *ReconcileReport
	err    error
}

func (f *fakeReconciler) ReconcileAllAccounts(context.Context) (*ReconcileReport, error) {
	f.calls.Add(1)
	return f.report, f.err
}

type fakeJanitor struct {
	calls atomic.Int32
}

func (f *fakeJanitor) CleanExpired(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	return 2, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_TickRunsReconcileAndJanitor(t *testing.T) {
	r := &fakeReconciler{report: &ReconcileReport{Drifts: []BalanceDrift{{Code: "1000"}}}}
	j := &fakeJanitor{}

	s := NewScheduler(r, j, quietLogger(), time.Minute)
	s.tick(context.Background())

	assert.Equal(t, int32(1), r.calls.Load())
	assert.Equal(t, int32(1), j.calls.Load())
}

func TestScheduler_TickToleratesLockContention(t *testing.T) {
	r := &fakeReconciler{err: fmt.Errorf("ReconcileAllAccounts: %w", domain.ErrReconcileInProgress)}
	j := &fakeJanitor{}

	s := NewScheduler(r, j, quietLogger(), time.Minute)
	s.tick(context.Background())

	assert.Equal(t, int32(1), j.calls.Load())
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	r := &fakeReconciler{report: &ReconcileReport{}}
	s := NewScheduler(r, nil, quietLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
