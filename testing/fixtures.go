package testing

import (
	"fmt"
	"math/rand"

	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// RandomPhone returns a phone-shaped key that is unlikely to collide
func RandomPhone() string {
	return fmt.Sprintf("+2547%08d", rand.Intn(100000000))
}

// RandomMAC returns a random locally administered MAC address
func RandomMAC() string {
	return fmt.Sprintf("02:%02x:%02x:%02x:%02x:%02x",
		rand.Intn(256), rand.Intn(256), rand.Intn(256), rand.Intn(256), rand.Intn(256))
}

// CreateTestTrader creates an active trader
func (tf *TestFixtures) CreateTestTrader() (*models.Trader, error) {
	trader := &models.Trader{
		Phone:    RandomPhone(),
		Name:     "Test Trader",
		IsActive: utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(trader).Error; err != nil {
		return nil, fmt.Errorf("failed to create test trader: %w", err)
	}
	return trader, nil
}

// CreateTestClient creates a client under the given trader
func (tf *TestFixtures) CreateTestClient(traderID uint) (*models.Client, error) {
	client := &models.Client{
		TraderID:   traderID,
		Phone:      RandomPhone(),
		MACAddress: RandomMAC(),
		Rewarded:   utils.ToPtr(false),
	}
	if err := tf.DB.DB.Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to create test client: %w", err)
	}
	return client, nil
}

// CreateTestDevice creates a device; the password cipher is an opaque placeholder
func (tf *TestFixtures) CreateTestDevice(name string, active bool) (*models.Device, error) {
	device := &models.Device{
		DisplayName:    name,
		Family:         models.DeviceFamilyRouterOS,
		Host:           "192.0.2.1",
		Port:           utils.DefaultRouterOSPort,
		Username:       "admin",
		PasswordCipher: "sealed",
		UseTLS:         utils.ToPtr(false),
		IsActive:       utils.ToPtr(active),
	}
	if err := tf.DB.DB.Create(device).Error; err != nil {
		return nil, fmt.Errorf("failed to create test device: %w", err)
	}
	return device, nil
}
