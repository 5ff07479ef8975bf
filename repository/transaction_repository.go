package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Hotspot-Ledger/models"
	"gorm.io/gorm"
)

// TransactionRepositoryImpl implements TransactionRepository interface
type TransactionRepositoryImpl struct {
	*BaseRepository[models.Transaction, models.TransactionFilter]
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &TransactionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Transaction, models.TransactionFilter](db, applyTransactionFilter),
	}
}

// ByUUID finds a transaction by UUID
func (r *TransactionRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Transaction, error) {
	db := r.getDB(ctx)
	var transaction models.Transaction
	err := db.Where("uuid = ?", uuid).Last(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transaction, nil
}

// ListByTraderAscending returns the full history of a trader in fold order
func (r *TransactionRepositoryImpl) ListByTraderAscending(ctx context.Context, traderID uint) ([]*models.Transaction, error) {
	db := r.getDB(ctx)
	var transactions []*models.Transaction
	err := db.Where("trader_id = ?", traderID).
		Order("created_at ASC, id ASC").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by trader: %w", err)
	}
	return transactions, nil
}

// ListByTraderRecent returns most-recent-first history; limit <= 0 means no cap
func (r *TransactionRepositoryImpl) ListByTraderRecent(ctx context.Context, traderID uint, limit int) ([]*models.Transaction, error) {
	db := r.getDB(ctx)
	var transactions []*models.Transaction

	query := db.Where("trader_id = ?", traderID).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent transactions by trader: %w", err)
	}
	return transactions, nil
}

// SumMagnitudeByKind sums abs(amount_minor) of one kind for a trader
func (r *TransactionRepositoryImpl) SumMagnitudeByKind(ctx context.Context, traderID uint, kind models.TransactionKind) (int64, error) {
	db := r.getDB(ctx)
	var total int64
	err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(ABS(amount_minor)), 0)").
		Where("trader_id = ? AND kind = ?", traderID, kind).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return total, nil
}

func applyTransactionFilter(db *gorm.DB, filter models.TransactionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.TraderID != nil {
		db = db.Where("trader_id = ?", *filter.TraderID)
	}
	if filter.Kind != nil {
		db = db.Where("kind = ?", *filter.Kind)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
