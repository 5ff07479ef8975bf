package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
	"gorm.io/gorm"
)

// TraderRepositoryImpl implements TraderRepository interface
type TraderRepositoryImpl struct {
	*BaseRepository[models.Trader, models.TraderFilter]
}

// NewTraderRepository creates a new trader repository
func NewTraderRepository(db *gorm.DB) TraderRepository {
	return &TraderRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Trader, models.TraderFilter](db, applyTraderFilter),
	}
}

// ByPhone finds a trader by its phone key
func (r *TraderRepositoryImpl) ByPhone(ctx context.Context, phone string) (*models.Trader, error) {
	db := r.getDB(ctx)
	var trader models.Trader
	err := db.Where("phone = ?", phone).Last(&trader).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find trader by phone: %w", err)
	}
	return &trader, nil
}

// SetActive toggles the soft active flag; traders are never deleted
func (r *TraderRepositoryImpl) SetActive(ctx context.Context, traderID uint, active bool) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Trader{}).
		Where("id = ?", traderID).
		Updates(map[string]any{"is_active": active, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to update trader active flag: %w", err)
	}
	return nil
}

func applyTraderFilter(db *gorm.DB, filter models.TraderFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Phone != nil {
		db = db.Where("phone = ?", *filter.Phone)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}
