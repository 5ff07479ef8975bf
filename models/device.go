package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceFamily identifies the controller API a device speaks
type DeviceFamily string

const (
	DeviceFamilyRouterOS DeviceFamily = "routeros"
)

// Device is a configured hotspot controller endpoint.
// PasswordCipher holds the secretbox-sealed credential, never the plaintext.
type Device struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID           uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	DisplayName    string         `gorm:"type:varchar(255);not null" json:"display_name"`
	Family         DeviceFamily   `gorm:"type:varchar(20);not null;default:'routeros'" json:"family"`
	Host           string         `gorm:"type:varchar(255);not null" json:"host"`
	Port           int            `gorm:"not null" json:"port"`
	Username       string         `gorm:"type:varchar(255);not null" json:"username"`
	PasswordCipher string         `gorm:"type:text;not null" json:"-"`
	UseTLS         *bool          `gorm:"not null;default:false" json:"use_tls"`
	IsActive       *bool          `gorm:"not null;default:true;index" json:"is_active"`
	LastSeenAt     *time.Time     `json:"last_seen_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Device) TableName() string {
	return "devices"
}

// BeforeCreate ensures UUID is set
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == uuid.Nil {
		d.UUID = uuid.New()
	}
	return nil
}

// Active reports whether the device takes part in default selection
func (d *Device) Active() bool {
	return d.IsActive != nil && *d.IsActive
}

// DeviceFilter represents filter criteria for device queries
type DeviceFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Host     *string
	IsActive *bool
}
