package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PricingTierRepositoryImpl implements PricingTierRepository interface
type PricingTierRepositoryImpl struct {
	*BaseRepository[models.PricingTier, models.PricingTierFilter]
}

// NewPricingTierRepository creates a new pricing tier repository
func NewPricingTierRepository(db *gorm.DB) PricingTierRepository {
	return &PricingTierRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PricingTier, models.PricingTierFilter](db, applyPricingTierFilter),
	}
}

// ByTraderAndCategory returns the tier of one trader and category, or nil
func (r *PricingTierRepositoryImpl) ByTraderAndCategory(ctx context.Context, traderID uint, category models.PricingCategory) (*models.PricingTier, error) {
	db := r.getDB(ctx)
	var tier models.PricingTier
	err := db.Where("trader_id = ? AND category = ?", traderID, category).First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pricing tier: %w", err)
	}
	return &tier, nil
}

// ListByTrader returns all tiers of a trader
func (r *PricingTierRepositoryImpl) ListByTrader(ctx context.Context, traderID uint) ([]*models.PricingTier, error) {
	db := r.getDB(ctx)
	var tiers []*models.PricingTier
	if err := db.Where("trader_id = ?", traderID).Order("id ASC").Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("failed to list pricing tiers: %w", err)
	}
	return tiers, nil
}

// Upsert inserts the tier or replaces base price and schedule of the existing (trader, category) row
func (r *PricingTierRepositoryImpl) Upsert(ctx context.Context, tier *models.PricingTier) error {
	db := r.getDB(ctx)
	tier.UpdatedAt = utils.UTCNow()
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "trader_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_price_minor", "discounts", "updated_at"}),
	}).Create(tier).Error
	if err != nil {
		return fmt.Errorf("failed to upsert pricing tier: %w", err)
	}
	return nil
}

func applyPricingTierFilter(db *gorm.DB, filter models.PricingTierFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.TraderID != nil {
		db = db.Where("trader_id = ?", *filter.TraderID)
	}
	if filter.Category != nil {
		db = db.Where("category = ?", *filter.Category)
	}
	return db
}
