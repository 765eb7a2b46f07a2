package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		role        string
		permissions []string
		capability  Capability
		want        bool
	}{
		{"owner can do anything", "OWNER", nil, MaintenanceRun, true},
		{"accountant runs maintenance", "ACCOUNTANT", nil, MaintenanceRun, true},
		{"cashier cannot post", "CASHIER", nil, LedgerPost, false},
		{"cashier redeems points", "CASHIER", nil, LoyaltyRedeem, true},
		{"accountant reads audit trail", "ACCOUNTANT", nil, AuditRead, true},
		{"manager cannot read audit trail", "MANAGER", nil, AuditRead, false},
		{"explicit grant widens role", "STAFF", []string{"ledger:post"}, LedgerPost, true},
		{"wildcard grant", "STAFF", []string{"*"}, MaintenanceRun, true},
		{"explicit denial beats role", "ACCOUNTANT", []string{"!maintenance:run"}, MaintenanceRun, false},
		{"explicit denial beats owner", "OWNER", []string{"!ledger:post"}, LedgerPost, false},
		{"unknown role denied", "GUEST", nil, AccountsRead, false},
		{"empty role denied", "", nil, AccountsRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.role, tt.permissions, tt.capability)
			assert.Equal(t, tt.want, d.Allowed, d.Reason)
			assert.NotEmpty(t, d.Reason)
		})
	}
}
