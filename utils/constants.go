package utils

import (
	"time"
)

// Token constants
const (
	// AdminAccessTokenTTL is the default time-to-live for admin access tokens (12 hours)
	AdminAccessTokenTTL = 12 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Money constants
const (
	// CurrencyMinorUnitDigits is the number of decimal digits of the currency minor unit
	CurrencyMinorUnitDigits = 2

	// MinorUnitsPerMajor is 10^CurrencyMinorUnitDigits
	MinorUnitsPerMajor = 100

	DefaultCurrency = "KES"
)

// Device constants
const (
	// DefaultDeviceTimeout is applied to every device call when no timeout is configured
	DefaultDeviceTimeout = 4 * time.Second

	MinDeviceTimeout = 1 * time.Second
	MaxDeviceTimeout = 10 * time.Second

	DefaultRouterOSPort    = 80
	DefaultRouterOSTLSPort = 443
)
