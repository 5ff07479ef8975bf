// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// ClampDuration bounds d to [lo, hi]; a non-positive d yields def
func ClampDuration(d, def, lo, hi time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
