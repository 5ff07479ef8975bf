package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// ClientFlow manages the local replica of a trader's hotspot clients.
// Phone and MAC are each unique within one trader.
type ClientFlow interface {
	Create(ctx context.Context, traderKey string, req *dto.CreateClientRequest, metadata *ClientMetadata) (*dto.ClientDTO, error)
	List(ctx context.Context, traderKey string) ([]dto.ClientDTO, error)
	SetRewarded(ctx context.Context, traderKey string, clientID uint, rewarded bool) (*dto.ClientDTO, error)
}

type ClientFlowImpl struct {
	traderRepo repository.TraderRepository
	clientRepo repository.ClientRepository
	audit      auditRecorder
}

func NewClientFlow(traderRepo repository.TraderRepository, clientRepo repository.ClientRepository, auditRepo repository.AuditLogRepository) ClientFlow {
	return &ClientFlowImpl{
		traderRepo: traderRepo,
		clientRepo: clientRepo,
		audit:      auditRecorder{repo: auditRepo},
	}
}

func (f *ClientFlowImpl) Create(ctx context.Context, traderKey string, req *dto.CreateClientRequest, metadata *ClientMetadata) (*dto.ClientDTO, error) {
	if req == nil {
		return nil, NewBusinessError("CLIENT_VALIDATION_FAILED", "Client request is required", ErrInvalidClientPhone)
	}
	phone, err := utils.NormalizePhoneKey(req.Phone)
	if err != nil {
		return nil, NewBusinessError("INVALID_CLIENT_PHONE", "Client phone must contain 7 to 15 digits", ErrInvalidClientPhone)
	}
	mac, err := utils.NormalizeMAC(req.MACAddress)
	if err != nil {
		return nil, NewBusinessError("INVALID_MAC_ADDRESS", "MAC address must contain 12 hexadecimal digits", ErrInvalidMACAddress)
	}

	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}

	byPhone, err := f.clientRepo.ByTraderAndPhone(ctx, trader.ID, phone)
	if err != nil {
		return nil, persistenceError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if byPhone != nil {
		return nil, NewBusinessError("CLIENT_PHONE_EXISTS", "A client with this phone already exists", ErrClientPhoneExists)
	}
	byMAC, err := f.clientRepo.ByTraderAndMAC(ctx, trader.ID, mac)
	if err != nil {
		return nil, persistenceError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if byMAC != nil {
		return nil, NewBusinessError("CLIENT_MAC_EXISTS", "A client with this mac address already exists", ErrClientMACExists)
	}

	client := &models.Client{
		TraderID:   trader.ID,
		Phone:      phone,
		MACAddress: mac,
		Rewarded:   utils.ToPtr(utils.IsTrue(req.Rewarded)),
	}
	err = f.clientRepo.Save(ctx, client)
	f.audit.record(ctx, metadata, &trader.ID, models.AuditActionClientCreated,
		fmt.Sprintf("client %s (%s)", phone, mac), err, nil)
	if err != nil {
		// a concurrent insert lost the race against the unique indexes
		if repository.IsUniqueViolation(err) {
			return nil, f.duplicateAfterRace(ctx, trader.ID, phone)
		}
		return nil, persistenceError("CLIENT_CREATE_FAILED", "Failed to create client", err)
	}

	out := ToClientDTO(*client)
	return &out, nil
}

func (f *ClientFlowImpl) duplicateAfterRace(ctx context.Context, traderID uint, phone string) error {
	if existing, err := f.clientRepo.ByTraderAndPhone(ctx, traderID, phone); err == nil && existing != nil {
		return NewBusinessError("CLIENT_PHONE_EXISTS", "A client with this phone already exists", ErrClientPhoneExists)
	}
	return NewBusinessError("CLIENT_MAC_EXISTS", "A client with this mac address already exists", ErrClientMACExists)
}

func (f *ClientFlowImpl) List(ctx context.Context, traderKey string) ([]dto.ClientDTO, error) {
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	clients, err := f.clientRepo.ListByTrader(ctx, trader.ID)
	if err != nil {
		return nil, persistenceError("CLIENT_LIST_FAILED", "Failed to list clients", err)
	}
	out := make([]dto.ClientDTO, 0, len(clients))
	for _, c := range clients {
		out = append(out, ToClientDTO(*c))
	}
	return out, nil
}

func (f *ClientFlowImpl) SetRewarded(ctx context.Context, traderKey string, clientID uint, rewarded bool) (*dto.ClientDTO, error) {
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	client, err := f.clientRepo.ByID(ctx, clientID)
	if err != nil {
		return nil, persistenceError("CLIENT_LOOKUP_FAILED", "Failed to lookup client", err)
	}
	if client == nil || client.TraderID != trader.ID {
		return nil, NewBusinessError("CLIENT_NOT_FOUND", "Client not found", ErrClientNotFound)
	}
	if err := f.clientRepo.SetRewarded(ctx, client.ID, rewarded); err != nil {
		return nil, persistenceError("CLIENT_UPDATE_FAILED", "Failed to update client", err)
	}
	client.Rewarded = utils.ToPtr(rewarded)
	out := ToClientDTO(*client)
	return &out, nil
}
