package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	AuditActionPostTransaction = "ledger.post_transaction"
	AuditActionCreateAccount   = "ledger.create_account"
	AuditActionReconcile       = "ledger.reconcile"
	AuditActionRepair          = "ledger.repair_unbalanced"
	AuditActionNormalize       = "ledger.normalize_negative"
	AuditActionConfirmEntry    = "customer_ledger.confirm"
	AuditActionRedeemPoints    = "loyalty.redeem"
)

type AuditLog struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Details    json.RawMessage
	CreatedAt  time.Time
}
