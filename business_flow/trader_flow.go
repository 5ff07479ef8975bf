package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// TraderFlow administers traders. Traders are deactivated, never deleted.
type TraderFlow interface {
	Create(ctx context.Context, req *dto.CreateTraderRequest, metadata *ClientMetadata) (*dto.TraderDTO, error)
	Get(ctx context.Context, traderKey string) (*dto.TraderDTO, error)
	List(ctx context.Context, req *dto.ListTradersRequest) ([]dto.TraderDTO, error)
	SetActive(ctx context.Context, traderKey string, active bool, metadata *ClientMetadata) (*dto.TraderDTO, error)
}

type TraderFlowImpl struct {
	traderRepo repository.TraderRepository
	audit      auditRecorder
}

func NewTraderFlow(traderRepo repository.TraderRepository, auditRepo repository.AuditLogRepository) TraderFlow {
	return &TraderFlowImpl{
		traderRepo: traderRepo,
		audit:      auditRecorder{repo: auditRepo},
	}
}

func (f *TraderFlowImpl) Create(ctx context.Context, req *dto.CreateTraderRequest, metadata *ClientMetadata) (*dto.TraderDTO, error) {
	if req == nil {
		return nil, NewBusinessError("TRADER_VALIDATION_FAILED", "Trader request is required", ErrInvalidTraderPhone)
	}
	phone, err := utils.NormalizePhoneKey(req.Phone)
	if err != nil {
		return nil, NewBusinessError("INVALID_TRADER_PHONE", "Trader phone must contain 7 to 15 digits", ErrInvalidTraderPhone)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewBusinessError("TRADER_NAME_REQUIRED", "Trader name is required", ErrTraderNameRequired)
	}

	existing, err := f.traderRepo.ByPhone(ctx, phone)
	if err != nil {
		return nil, persistenceError("TRADER_LOOKUP_FAILED", "Failed to lookup trader", err)
	}
	if existing != nil {
		return nil, NewBusinessError("TRADER_ALREADY_EXISTS", "A trader with this phone already exists", ErrTraderAlreadyExists)
	}

	trader := &models.Trader{
		Phone:    phone,
		Name:     name,
		IsActive: utils.ToPtr(true),
	}
	err = f.traderRepo.Save(ctx, trader)
	f.audit.record(ctx, metadata, optionalID(trader.ID), models.AuditActionTraderCreated,
		fmt.Sprintf("trader %s created", phone), err, nil)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, NewBusinessError("TRADER_ALREADY_EXISTS", "A trader with this phone already exists", ErrTraderAlreadyExists)
		}
		return nil, persistenceError("TRADER_CREATE_FAILED", "Failed to create trader", err)
	}

	out := ToTraderDTO(*trader)
	return &out, nil
}

func (f *TraderFlowImpl) Get(ctx context.Context, traderKey string) (*dto.TraderDTO, error) {
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	out := ToTraderDTO(*trader)
	return &out, nil
}

func (f *TraderFlowImpl) List(ctx context.Context, req *dto.ListTradersRequest) ([]dto.TraderDTO, error) {
	filter := models.TraderFilter{}
	if req != nil {
		filter.IsActive = req.Active
	}
	traders, err := f.traderRepo.ByFilter(ctx, filter, "id ASC", 0, 0)
	if err != nil {
		return nil, persistenceError("TRADER_LIST_FAILED", "Failed to list traders", err)
	}
	out := make([]dto.TraderDTO, 0, len(traders))
	for _, t := range traders {
		out = append(out, ToTraderDTO(*t))
	}
	return out, nil
}

func (f *TraderFlowImpl) SetActive(ctx context.Context, traderKey string, active bool, metadata *ClientMetadata) (*dto.TraderDTO, error) {
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}

	action := models.AuditActionTraderDeactivated
	if active {
		action = models.AuditActionTraderActivated
	}
	err = f.traderRepo.SetActive(ctx, trader.ID, active)
	f.audit.record(ctx, metadata, &trader.ID, action, fmt.Sprintf("trader %s", trader.Phone), err, nil)
	if err != nil {
		return nil, persistenceError("TRADER_UPDATE_FAILED", "Failed to update trader", err)
	}

	trader.IsActive = utils.ToPtr(active)
	out := ToTraderDTO(*trader)
	return &out, nil
}

func optionalID(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
