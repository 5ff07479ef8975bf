package businessflow

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// auditRecorder writes audit rows. A failed write is logged and never
// changes the outcome of the audited operation.
type auditRecorder struct {
	repo repository.AuditLogRepository
}

func (a auditRecorder) record(ctx context.Context, metadata *ClientMetadata, traderID *uint, action, description string, opErr error, extra map[string]any) {
	if a.repo == nil {
		return
	}

	entry := &models.AuditLog{
		TraderID:    traderID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(opErr == nil),
		CreatedAt:   utils.UTCNow(),
	}
	if actor := utils.AdminFromContext(ctx); actor != "" {
		entry.Actor = &actor
	}
	if opErr != nil {
		msg := opErr.Error()
		entry.ErrorMessage = &msg
	}

	ip := utils.IPAddressFromContext(ctx)
	requestID := utils.RequestIDFromContext(ctx)
	if metadata != nil {
		if metadata.IPAddress != "" {
			ip = metadata.IPAddress
		}
		if metadata.RequestID != "" {
			requestID = metadata.RequestID
		}
	}
	if ip != "" {
		entry.IPAddress = &ip
	}
	if requestID != "" {
		entry.RequestID = &requestID
	}
	if len(extra) > 0 {
		if raw, err := json.Marshal(extra); err == nil {
			entry.Metadata = raw
		}
	}

	if err := a.repo.Save(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s: %v", action, err)
	}
}

// AuditFlow exposes the admin audit trail
type AuditFlow interface {
	List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogDTO, error)
}

type AuditFlowImpl struct {
	auditRepo  repository.AuditLogRepository
	traderRepo repository.TraderRepository
}

func NewAuditFlow(auditRepo repository.AuditLogRepository, traderRepo repository.TraderRepository) AuditFlow {
	return &AuditFlowImpl{
		auditRepo:  auditRepo,
		traderRepo: traderRepo,
	}
}

func (f *AuditFlowImpl) List(ctx context.Context, req *dto.AuditLogListRequest) ([]dto.AuditLogDTO, error) {
	if req == nil {
		req = &dto.AuditLogListRequest{}
	}
	if req.Offset < 0 {
		return nil, NewBusinessError("AUDIT_LIST_VALIDATION_FAILED", "Offset must not be negative", ErrInvalidPage)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	var (
		entries []*models.AuditLog
		err     error
	)
	switch {
	case strings.TrimSpace(req.TraderPhone) != "":
		trader, lookupErr := lookupTrader(ctx, f.traderRepo, req.TraderPhone)
		if lookupErr != nil {
			return nil, lookupErr
		}
		entries, err = f.auditRepo.ListByTrader(ctx, trader.ID, limit, req.Offset)
	case req.FailedOnly:
		entries, err = f.auditRepo.ListFailedActions(ctx, limit, req.Offset)
	default:
		entries, err = f.auditRepo.ByFilter(ctx, models.AuditLogFilter{}, "id DESC", limit, req.Offset)
	}
	if err != nil {
		return nil, persistenceError("AUDIT_LIST_FAILED", "Failed to list audit logs", err)
	}

	out := make([]dto.AuditLogDTO, 0, len(entries))
	for _, e := range entries {
		if req.FailedOnly && !e.IsFailed() {
			continue
		}
		out = append(out, ToAuditLogDTO(*e))
	}
	return out, nil
}
