package models

import (
	"encoding/json"
	"time"
)

type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	TraderID     *uint           `gorm:"index:idx_audit_trader_id" json:"trader_id,omitempty"`
	Actor        *string         `gorm:"size:255" json:"actor,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"size:64" json:"ip_address,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionTraderCreated       = "trader_created"
	AuditActionTraderActivated     = "trader_activated"
	AuditActionTraderDeactivated   = "trader_deactivated"
	AuditActionTransactionAppended = "transaction_appended"
	AuditActionClientCreated       = "client_created"
	AuditActionPricingUpdated      = "pricing_updated"
	AuditActionDeviceUpserted      = "device_upserted"
	AuditActionDeviceRemoved       = "device_removed"
	AuditActionSessionDisconnected = "session_disconnected"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	TraderID      *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
