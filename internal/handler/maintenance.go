package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/bizledger/internal/logging"
	"github.com/josh-kwaku/bizledger/internal/service/reconcile"
)

type maintenanceService interface {
	ReconcileAllAccounts(ctx context.Context) (*reconcile.ReconcileReport, error)
	RepairUnbalancedTransactions(ctx context.Context) (*reconcile.RepairReport, error)
	NormalizeNegativeEntries(ctx context.Context) (*reconcile.NormalizeReport, error)
}

// MaintenanceHandler exposes the ledger repair jobs. Each run reports
// per-item failures in its body and still answers 200.
type MaintenanceHandler struct {
	jobs maintenanceService
}

func NewMaintenanceHandler(jobs maintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{jobs: jobs}
}

func (h *MaintenanceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.jobs.ReconcileAllAccounts(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("reconcile failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, report)
}

func (h *MaintenanceHandler) Repair(w http.ResponseWriter, r *http.Request) {
	report, err := h.jobs.RepairUnbalancedTransactions(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("repair failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, report)
}

func (h *MaintenanceHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	report, err := h.jobs.NormalizeNegativeEntries(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("normalize failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, report)
}
