package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionKind is the ledger event kind; it alone decides the sign of an amount
type TransactionKind string

const (
	TransactionKindCreditAdd       TransactionKind = "credit_add"
	TransactionKindVoucherPurchase TransactionKind = "voucher_purchase"
)

// Valid reports whether k is a known ledger kind
func (k TransactionKind) Valid() bool {
	return k == TransactionKindCreditAdd || k == TransactionKindVoucherPurchase
}

// Transaction is an immutable ledger entry. Rows are inserted once and never
// updated or deleted; ordering is created_at then id.
type Transaction struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID           uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	TraderID       uint            `gorm:"not null;index:idx_transactions_trader_created,priority:1" json:"trader_id"`
	Kind           TransactionKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	AmountMinor    int64           `gorm:"not null" json:"amount_minor"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	Description    string          `gorm:"type:text" json:"description"`
	IdempotencyKey *string         `gorm:"type:varchar(128)" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_transactions_trader_created,priority:2" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate ensures UUID is set
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	return nil
}

// TransactionFilter represents filter criteria for transaction queries
type TransactionFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	TraderID      *uint
	Kind          *TransactionKind
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
