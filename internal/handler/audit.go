package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

type auditReader interface {
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]domain.AuditLog, error)
}

type AuditHandler struct {
	audit auditReader
}

func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

type auditLogDTO struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *uuid.UUID      `json:"entity_id"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  time.Time       `json:"created_at"`
}

// List returns the audit trail for one entity, oldest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType := r.PathValue("entityType")
	id, appErr := pathID(r, "id")
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	logs, err := h.audit.ListByEntity(r.Context(), entityType, id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]auditLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = auditLogDTO{
			ID:         l.ID,
			UserID:     l.UserID,
			Action:     l.Action,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt,
		}
	}

	RespondSuccess(w, http.StatusOK, dtos)
}
