package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
	"gorm.io/gorm"
)

// ClientRepositoryImpl implements ClientRepository interface
type ClientRepositoryImpl struct {
	*BaseRepository[models.Client, models.ClientFilter]
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &ClientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Client, models.ClientFilter](db, applyClientFilter),
	}
}

// ListByTrader returns the local client replica of one trader in stable id order
func (r *ClientRepositoryImpl) ListByTrader(ctx context.Context, traderID uint) ([]*models.Client, error) {
	db := r.getDB(ctx)
	var clients []*models.Client
	if err := db.Where("trader_id = ?", traderID).Order("id ASC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients by trader: %w", err)
	}
	return clients, nil
}

// ByTraderAndPhone finds a client by phone within one trader
func (r *ClientRepositoryImpl) ByTraderAndPhone(ctx context.Context, traderID uint, phone string) (*models.Client, error) {
	return r.first(ctx, "trader_id = ? AND phone = ?", traderID, phone)
}

// ByTraderAndMAC finds a client by normalized MAC within one trader
func (r *ClientRepositoryImpl) ByTraderAndMAC(ctx context.Context, traderID uint, mac string) (*models.Client, error) {
	return r.first(ctx, "trader_id = ? AND mac_address = ?", traderID, mac)
}

// SetRewarded updates the rewarded flag of a client
func (r *ClientRepositoryImpl) SetRewarded(ctx context.Context, clientID uint, rewarded bool) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Client{}).
		Where("id = ?", clientID).
		Updates(map[string]any{"rewarded": rewarded, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to update client rewarded flag: %w", err)
	}
	return nil
}

func (r *ClientRepositoryImpl) first(ctx context.Context, query string, args ...any) (*models.Client, error) {
	db := r.getDB(ctx)
	var client models.Client
	err := db.Where(query, args...).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return &client, nil
}

func applyClientFilter(db *gorm.DB, filter models.ClientFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.TraderID != nil {
		db = db.Where("trader_id = ?", *filter.TraderID)
	}
	if filter.Phone != nil {
		db = db.Where("phone = ?", *filter.Phone)
	}
	if filter.MACAddress != nil {
		db = db.Where("mac_address = ?", *filter.MACAddress)
	}
	if filter.Rewarded != nil {
		db = db.Where("rewarded = ?", *filter.Rewarded)
	}
	return db
}
