package utils

import "context"

type contextKey string

// Request-scoped context keys set by handlers
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	TimeoutKey   contextKey = "timeout"
	AdminKey     contextKey = "admin_subject"
)

// RequestIDFromContext returns the request id stored by the handler layer, if any
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// IPAddressFromContext returns the client IP stored by the handler layer, if any
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(IPAddressKey).(string); ok {
		return v
	}
	return ""
}

// AdminFromContext returns the authenticated admin subject, if any
func AdminFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(AdminKey).(string); ok {
		return v
	}
	return ""
}
