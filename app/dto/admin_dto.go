// Package dto contains Data Transfer Objects for API request and response structures
package dto

// AdminLoginRequest exchanges the configured admin credentials for an access token
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

type AdminSessionDTO struct {
	AccessToken string `json:"access_token" example:"jwt"`
	ExpiresIn   int    `json:"expires_in" example:"43200"`
	ExpiresAt   string `json:"expires_at" example:"2024-01-15T22:30:00Z"`
	TokenType   string `json:"token_type" example:"Bearer"`
}

type AdminLoginResponse struct {
	Username string          `json:"username"`
	Session  AdminSessionDTO `json:"session"`
}

// AuditLogListRequest filters the admin audit trail
type AuditLogListRequest struct {
	TraderPhone string `query:"trader_phone" validate:"omitempty,max=20"`
	FailedOnly  bool   `query:"failed"`
	Limit       int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset      int    `query:"offset" validate:"omitempty,min=0"`
}

type AuditLogDTO struct {
	ID           uint    `json:"id"`
	TraderID     *uint   `json:"trader_id,omitempty"`
	Actor        string  `json:"actor"`
	Action       string  `json:"action"`
	Description  string  `json:"description"`
	IPAddress    string  `json:"ip_address,omitempty"`
	RequestID    string  `json:"request_id,omitempty"`
	Success      bool    `json:"success"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
}
