package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/bizledger/internal/domain"
	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/metrics"
	"github.com/josh-kwaku/bizledger/internal/repository"
)

// EntryInput sets exactly one of Debit or Credit.
type EntryInput struct {
	AccountID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description *string
}

type PostTransactionRequest struct {
	Description string
	Date        time.Time
	Entries     []EntryInput
	ActorID     uuid.UUID
}

type postingLine struct {
	accountID   uuid.UUID
	amount      decimal.Decimal
	direction   domain.Direction
	description *string
}

func (s *Service) PostTransaction(ctx context.Context, req PostTransactionRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	lines, err := validatePosting(req)
	if err != nil {
		metrics.RecordPosting("rejected")
		return nil, fmt.Errorf("PostTransaction: %w", err)
	}

	t, err := s.executePosting(ctx, req, lines)
	if err != nil {
		metrics.RecordPosting("failed")
		return nil, fmt.Errorf("PostTransaction: %w", err)
	}

	metrics.RecordPosting("posted")
	log.Info("transaction posted",
		"transaction_id", t.ID,
		"entries", len(t.Entries),
		"occurred_at", t.OccurredAt,
	)
	return t, nil
}

func validatePosting(req PostTransactionRequest) ([]postingLine, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("validatePosting: %w", domain.Invalid("description is required"))
	}
	if len(req.Entries) < 2 {
		return nil, fmt.Errorf("validatePosting: %w", domain.Invalid("at least two entries are required"))
	}

	lines := make([]postingLine, 0, len(req.Entries))
	debits, credits := decimal.Zero, decimal.Zero
	for i, e := range req.Entries {
		if e.AccountID == uuid.Nil {
			return nil, fmt.Errorf("validatePosting: %w", domain.Invalid("entry %d: account is required", i))
		}
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			return nil, fmt.Errorf("validatePosting: %w", domain.Invalid("entry %d: amounts must not be negative", i))
		}

		hasDebit, hasCredit := e.Debit.IsPositive(), e.Credit.IsPositive()
		switch {
		case hasDebit && hasCredit:
			return nil, fmt.Errorf("validatePosting: %w", domain.Invalid("entry %d: set either debit or credit, not both", i))
		case hasDebit:
			debits = debits.Add(e.Debit)
			lines = append(lines, postingLine{e.AccountID, e.Debit, domain.DirectionDebit, e.Description})
		case hasCredit:
			credits = credits.Add(e.Credit)
			lines = append(lines, postingLine{e.AccountID, e.Credit, domain.DirectionCredit, e.Description})
		default:
			return nil, fmt.Errorf("validatePosting: %w", domain.Invalid("entry %d: debit or credit is required", i))
		}
	}

	if !domain.WithinTolerance(debits, credits) {
		return nil, fmt.Errorf("validatePosting: debits %s, credits %s: %w", debits, credits, domain.ErrImbalance)
	}
	return lines, nil
}

func (s *Service) executePosting(ctx context.Context, req PostTransactionRequest, lines []postingLine) (*domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("executePosting: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := repository.LockShared(ctx, tx, repository.LedgerWriteLock); err != nil {
		return nil, fmt.Errorf("executePosting: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.accountID)
	}
	locked, err := lockAccountsInOrder(ctx, tx, s.accounts, ids...)
	if err != nil {
		return nil, fmt.Errorf("executePosting: %w", err)
	}
	if err := sameCurrency(locked); err != nil {
		return nil, fmt.Errorf("executePosting: %w", err)
	}

	now := time.Now().UTC()
	occurredAt := req.Date
	if occurredAt.IsZero() {
		occurredAt = now
	}
	t := &domain.Transaction{
		ID:          uuid.New(),
		Description: strings.TrimSpace(req.Description),
		OccurredAt:  occurredAt,
		CreatedAt:   now,
	}
	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return nil, fmt.Errorf("executePosting: create transaction: %w", err)
	}

	deltas := make(map[uuid.UUID]decimal.Decimal, len(locked))
	for _, l := range lines {
		entry := domain.LedgerEntry{
			ID:            uuid.New(),
			TransactionID: t.ID,
			AccountID:     l.accountID,
			Amount:        l.amount,
			Direction:     l.direction,
			Description:   l.description,
			CreatedAt:     now,
		}
		if err := s.ledger.Create(ctx, tx, &entry); err != nil {
			return nil, fmt.Errorf("executePosting: create entry: %w", err)
		}
		t.Entries = append(t.Entries, entry)

		acct := locked[l.accountID]
		deltas[acct.ID] = deltas[acct.ID].Add(acct.Delta(l.amount, l.direction))
	}

	for id, delta := range deltas {
		acct := locked[id]
		if err := s.accounts.UpdateBalance(ctx, tx, id, acct.Balance.Add(delta), acct.Version+1); err != nil {
			return nil, fmt.Errorf("executePosting: update account %s: %w", acct.Code, err)
		}
	}

	if err := s.writePostingRecords(ctx, tx, t, req.ActorID); err != nil {
		return nil, fmt.Errorf("executePosting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("executePosting: commit: %w", err)
	}
	return t, nil
}

type postedEntry struct {
	AccountID uuid.UUID        `json:"account_id"`
	Amount    decimal.Decimal  `json:"amount"`
	Direction domain.Direction `json:"direction"`
}

type transactionPosted struct {
	TransactionID uuid.UUID     `json:"transaction_id"`
	Description   string        `json:"description"`
	OccurredAt    time.Time     `json:"occurred_at"`
	Entries       []postedEntry `json:"entries"`
}

// writePostingRecords appends the audit row and the outbox event inside the
// posting transaction.
func (s *Service) writePostingRecords(ctx context.Context, tx *sql.Tx, t *domain.Transaction, actor uuid.UUID) error {
	if actor == uuid.Nil {
		actor = domain.SystemUserID
	}

	event := transactionPosted{
		TransactionID: t.ID,
		Description:   t.Description,
		OccurredAt:    t.OccurredAt,
		Entries:       make([]postedEntry, len(t.Entries)),
	}
	for i, e := range t.Entries {
		event.Entries[i] = postedEntry{AccountID: e.AccountID, Amount: e.Amount, Direction: e.Direction}
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("writePostingRecords: marshal event: %w", err)
	}

	if err := s.outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:          uuid.New(),
		EventType:   domain.EventTransactionPosted,
		AggregateID: t.ID,
		Payload:     payload,
		Status:      domain.OutboxStatusPending,
		CreatedAt:   t.CreatedAt,
	}); err != nil {
		return fmt.Errorf("writePostingRecords: outbox: %w", err)
	}

	details, err := json.Marshal(map[string]any{"entries": len(t.Entries), "description": t.Description})
	if err != nil {
		return fmt.Errorf("writePostingRecords: marshal details: %w", err)
	}
	if err := s.audit.Append(ctx, tx, &domain.AuditLog{
		ID:         uuid.New(),
		UserID:     actor,
		Action:     domain.AuditActionPostTransaction,
		EntityType: "transaction",
		EntityID:   &t.ID,
		Details:    details,
		CreatedAt:  t.CreatedAt,
	}); err != nil {
		return fmt.Errorf("writePostingRecords: audit: %w", err)
	}
	return nil
}

func sameCurrency(accounts map[uuid.UUID]*domain.Account) error {
	var want domain.Currency
	for _, a := range accounts {
		if want == "" {
			want = a.Currency
			continue
		}
		if a.Currency != want {
			return fmt.Errorf("sameCurrency: %s and %s: %w", want, a.Currency, domain.ErrCurrencyMismatch)
		}
	}
	return nil
}

// lockAccountsInOrder takes row locks in a fixed order so concurrent
// postings touching the same accounts cannot deadlock. Duplicate ids are
// locked once.
func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	sorted := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})

	result := make(map[uuid.UUID]*domain.Account, len(sorted))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
