// Package businessflow contains the core business logic: the credit ledger,
// live-state reconciliation, pricing and the device registry.
package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// ClientMetadata holds caller information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// lookupTrader resolves a trader key. Lookups only trim the key; the strict
// phone shape is enforced when a trader is created.
func lookupTrader(ctx context.Context, repo repository.TraderRepository, traderKey string) (*models.Trader, error) {
	key := utils.TraderKey(traderKey)
	if key == "" {
		return nil, NewBusinessError("TRADER_KEY_REQUIRED", "Trader key is required", ErrTraderKeyRequired)
	}
	trader, err := repo.ByPhone(ctx, key)
	if err != nil {
		return nil, persistenceError("TRADER_LOOKUP_FAILED", "Failed to lookup trader", err)
	}
	if trader == nil {
		return nil, NewBusinessError("TRADER_NOT_FOUND", "Trader not found", ErrTraderNotFound)
	}
	return trader, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func ToTraderDTO(t models.Trader) dto.TraderDTO {
	return dto.TraderDTO{
		ID:        t.ID,
		UUID:      t.UUID.String(),
		Phone:     t.Phone,
		Name:      t.Name,
		IsActive:  t.Active(),
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

func ToTransactionDTO(tx models.Transaction, traderPhone string) dto.TransactionDTO {
	return dto.TransactionDTO{
		ID:          tx.ID,
		UUID:        tx.UUID.String(),
		TraderPhone: traderPhone,
		Kind:        string(tx.Kind),
		Amount:      utils.FromMinorUnits(utils.AbsMinor(tx.AmountMinor)),
		AmountMinor: utils.AbsMinor(tx.AmountMinor),
		Currency:    tx.Currency,
		Description: tx.Description,
		CreatedAt:   formatTime(tx.CreatedAt),
	}
}

func ToClientDTO(c models.Client) dto.ClientDTO {
	return dto.ClientDTO{
		ID:         c.ID,
		Phone:      c.Phone,
		MACAddress: c.MACAddress,
		Rewarded:   utils.IsTrue(c.Rewarded),
		CreatedAt:  formatTime(c.CreatedAt),
	}
}

func ToPricingTierDTO(t models.PricingTier) dto.PricingTierDTO {
	rules := make([]dto.DiscountRuleDTO, 0, len(t.Discounts))
	for _, r := range t.Discounts {
		rules = append(rules, dto.DiscountRuleDTO{Threshold: r.Threshold, Percent: r.Percent})
	}
	return dto.PricingTierDTO{
		Category:       string(t.Category),
		BasePrice:      utils.FromMinorUnits(t.BasePriceMinor),
		BasePriceMinor: t.BasePriceMinor,
		Discounts:      rules,
		UpdatedAt:      formatTime(t.UpdatedAt),
	}
}

func ToDeviceDTO(d models.Device) dto.DeviceDTO {
	var lastSeen *string
	if d.LastSeenAt != nil {
		s := formatTime(*d.LastSeenAt)
		lastSeen = &s
	}
	return dto.DeviceDTO{
		ID:          d.ID,
		UUID:        d.UUID.String(),
		DisplayName: d.DisplayName,
		Family:      string(d.Family),
		Host:        d.Host,
		Port:        d.Port,
		Username:    d.Username,
		UseTLS:      utils.IsTrue(d.UseTLS),
		IsActive:    d.Active(),
		LastSeenAt:  lastSeen,
		CreatedAt:   formatTime(d.CreatedAt),
		UpdatedAt:   formatTime(d.UpdatedAt),
	}
}

func ToAuditLogDTO(a models.AuditLog) dto.AuditLogDTO {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return dto.AuditLogDTO{
		ID:           a.ID,
		TraderID:     a.TraderID,
		Actor:        deref(a.Actor),
		Action:       a.Action,
		Description:  deref(a.Description),
		IPAddress:    deref(a.IPAddress),
		RequestID:    deref(a.RequestID),
		Success:      !a.IsFailed(),
		ErrorMessage: a.ErrorMessage,
		CreatedAt:    formatTime(a.CreatedAt),
	}
}
