package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
	"gorm.io/gorm"
)

// DeviceRepositoryImpl implements DeviceRepository interface
type DeviceRepositoryImpl struct {
	*BaseRepository[models.Device, models.DeviceFilter]
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &DeviceRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Device, models.DeviceFilter](db, applyDeviceFilter),
	}
}

// ListAll returns every non-deleted device in stored order
func (r *DeviceRepositoryImpl) ListAll(ctx context.Context) ([]*models.Device, error) {
	db := r.getDB(ctx)
	var devices []*models.Device
	if err := db.Order("id ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// ListActive returns active devices in stored order; the first one is the default
func (r *DeviceRepositoryImpl) ListActive(ctx context.Context) ([]*models.Device, error) {
	db := r.getDB(ctx)
	var devices []*models.Device
	if err := db.Where("is_active = ?", true).Order("id ASC").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list active devices: %w", err)
	}
	return devices, nil
}

// Update persists all mutable columns of a device
func (r *DeviceRepositoryImpl) Update(ctx context.Context, device *models.Device) error {
	db := r.getDB(ctx)
	device.UpdatedAt = utils.UTCNow()
	err := db.Model(device).Select(
		"display_name", "family", "host", "port", "username", "password_cipher", "use_tls", "is_active", "updated_at",
	).Updates(device).Error
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	return nil
}

// Delete soft-deletes a device
func (r *DeviceRepositoryImpl) Delete(ctx context.Context, deviceID uint) error {
	db := r.getDB(ctx)
	if err := db.Delete(&models.Device{}, deviceID).Error; err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

// TouchLastSeen records a successful connectivity probe
func (r *DeviceRepositoryImpl) TouchLastSeen(ctx context.Context, deviceID uint, at time.Time) error {
	db := r.getDB(ctx)
	err := db.Model(&models.Device{}).Where("id = ?", deviceID).Update("last_seen_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update device last seen: %w", err)
	}
	return nil
}

func applyDeviceFilter(db *gorm.DB, filter models.DeviceFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Host != nil {
		db = db.Where("host = ?", *filter.Host)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	return db
}
