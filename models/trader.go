// Package models contains domain entities for the hotspot credit ledger
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trader owns a hotspot, a credit ledger and a set of clients.
// Balance is never stored here; it is folded from the ledger on every read.
type Trader struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Phone     string    `gorm:"type:varchar(20);uniqueIndex:uk_traders_phone;not null" json:"phone"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  *bool     `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Trader) TableName() string {
	return "traders"
}

// BeforeCreate ensures UUID is set
func (t *Trader) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	return nil
}

// Active reports whether the trader is active; a nil flag counts as active
func (t *Trader) Active() bool {
	return t.IsActive == nil || *t.IsActive
}

// TraderFilter represents filter criteria for trader queries
type TraderFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Phone    *string
	IsActive *bool
}
