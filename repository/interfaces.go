// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Hotspot-Ledger/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// TraderRepository defines operations for traders
type TraderRepository interface {
	Repository[models.Trader, models.TraderFilter]
	ByPhone(ctx context.Context, phone string) (*models.Trader, error)
	SetActive(ctx context.Context, traderID uint, active bool) error
}

// ClientRepository defines operations for hotspot clients
type ClientRepository interface {
	Repository[models.Client, models.ClientFilter]
	ListByTrader(ctx context.Context, traderID uint) ([]*models.Client, error)
	ByTraderAndPhone(ctx context.Context, traderID uint, phone string) (*models.Client, error)
	ByTraderAndMAC(ctx context.Context, traderID uint, mac string) (*models.Client, error)
	SetRewarded(ctx context.Context, clientID uint, rewarded bool) error
}

// TransactionRepository is append-only: it exposes inserts and ordered reads, never updates or deletes
type TransactionRepository interface {
	Repository[models.Transaction, models.TransactionFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Transaction, error)
	ListByTraderAscending(ctx context.Context, traderID uint) ([]*models.Transaction, error)
	ListByTraderRecent(ctx context.Context, traderID uint, limit int) ([]*models.Transaction, error)
	SumMagnitudeByKind(ctx context.Context, traderID uint, kind models.TransactionKind) (int64, error)
}

// PricingTierRepository defines operations for pricing tiers
type PricingTierRepository interface {
	Repository[models.PricingTier, models.PricingTierFilter]
	ByTraderAndCategory(ctx context.Context, traderID uint, category models.PricingCategory) (*models.PricingTier, error)
	ListByTrader(ctx context.Context, traderID uint) ([]*models.PricingTier, error)
	Upsert(ctx context.Context, tier *models.PricingTier) error
}

// DeviceRepository defines operations for hotspot controller devices
type DeviceRepository interface {
	Repository[models.Device, models.DeviceFilter]
	ListAll(ctx context.Context) ([]*models.Device, error)
	ListActive(ctx context.Context) ([]*models.Device, error)
	Update(ctx context.Context, device *models.Device) error
	Delete(ctx context.Context, deviceID uint) error
	TouchLastSeen(ctx context.Context, deviceID uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByTrader(ctx context.Context, traderID uint, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
