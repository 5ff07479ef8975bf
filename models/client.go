package models

import (
	"time"
)

// Client is a hotspot subscriber registered under a trader.
// Phone and MACAddress are unique within one trader.
type Client struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TraderID   uint      `gorm:"not null;uniqueIndex:uk_clients_trader_phone,priority:1;uniqueIndex:uk_clients_trader_mac,priority:1" json:"trader_id"`
	Phone      string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_clients_trader_phone,priority:2" json:"phone"`
	MACAddress string    `gorm:"type:varchar(17);not null;uniqueIndex:uk_clients_trader_mac,priority:2" json:"mac_address"`
	Rewarded   *bool     `gorm:"not null;default:false" json:"rewarded"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Trader *Trader `gorm:"foreignKey:TraderID;constraint:OnDelete:RESTRICT" json:"trader,omitempty"`
}

func (Client) TableName() string {
	return "clients"
}

// ClientFilter represents filter criteria for client queries
type ClientFilter struct {
	ID         *uint
	TraderID   *uint
	Phone      *string
	MACAddress *string
	Rewarded   *bool
}
