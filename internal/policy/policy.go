// Package policy decides whether a caller may use a capability. Every
// privileged handler goes through Evaluate.
package policy

import "slices"

type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleAccountant Role = "ACCOUNTANT"
	RoleCashier    Role = "CASHIER"
	RoleStaff      Role = "STAFF"
)

type Capability string

const (
	AccountsRead    Capability = "accounts:read"
	AccountsWrite   Capability = "accounts:write"
	LedgerRead      Capability = "ledger:read"
	LedgerPost      Capability = "ledger:post"
	MaintenanceRun  Capability = "maintenance:run"
	CreditRead      Capability = "credit:read"
	CustomerConfirm Capability = "customer_entries:confirm"
	LoyaltyRead     Capability = "loyalty:read"
	LoyaltyEarn     Capability = "loyalty:earn"
	LoyaltyRedeem   Capability = "loyalty:redeem"
	AuditRead       Capability = "audit:read"
)

const (
	wildcardGrant   = "*"
	denyGrantPrefix = "!"
)

type Decision struct {
	Allowed bool
	Reason  string
}

var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		AccountsRead, AccountsWrite, LedgerRead, LedgerPost, MaintenanceRun,
		CreditRead, CustomerConfirm, LoyaltyRead, LoyaltyEarn, LoyaltyRedeem,
		AuditRead,
	},
	RoleManager: {
		AccountsRead, LedgerRead, LedgerPost, CreditRead, CustomerConfirm,
		LoyaltyRead, LoyaltyEarn, LoyaltyRedeem,
	},
	RoleAccountant: {
		AccountsRead, AccountsWrite, LedgerRead, LedgerPost, MaintenanceRun,
		CreditRead, CustomerConfirm, AuditRead,
	},
	RoleCashier: {
		AccountsRead, LoyaltyRead, LoyaltyEarn, LoyaltyRedeem,
	},
	RoleStaff: {
		AccountsRead, LoyaltyRead,
	},
}

// Evaluate applies, in order: an explicit "!cap" denial, the OWNER role,
// an explicit grant ("cap" or "*"), then the role's default set.
func Evaluate(role string, permissions []string, capability Capability) Decision {
	if slices.Contains(permissions, denyGrantPrefix+string(capability)) {
		return Decision{Allowed: false, Reason: "explicitly denied"}
	}
	if Role(role) == RoleOwner {
		return Decision{Allowed: true, Reason: "owner"}
	}
	if slices.Contains(permissions, string(capability)) || slices.Contains(permissions, wildcardGrant) {
		return Decision{Allowed: true, Reason: "granted"}
	}
	if slices.Contains(roleCapabilities[Role(role)], capability) {
		return Decision{Allowed: true, Reason: "role default"}
	}
	return Decision{Allowed: false, Reason: "not permitted for role " + role}
}
