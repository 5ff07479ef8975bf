package utils

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidMAC      = errors.New("mac address must contain exactly 12 hexadecimal digits")
	ErrInvalidPhoneKey = errors.New("phone must contain 7 to 15 digits with an optional leading +")
)

var phoneKeyPattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// MACKey strips separators and lowercases a MAC address so that
// "AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff" and "aabb.ccdd.eeff" compare equal.
// It does not validate the result.
func MACKey(mac string) string {
	var b strings.Builder
	b.Grow(12)
	for _, r := range strings.TrimSpace(mac) {
		switch r {
		case ':', '-', '.', ' ':
			continue
		}
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeMAC returns the canonical aa:bb:cc:dd:ee:ff form of mac
func NormalizeMAC(mac string) (string, error) {
	key := MACKey(mac)
	if len(key) != 12 {
		return "", ErrInvalidMAC
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", ErrInvalidMAC
		}
	}
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, key[i:i+2])
	}
	return strings.Join(parts, ":"), nil
}

// NormalizePhoneKey strips whitespace, dashes and parentheses and validates the remainder
func NormalizePhoneKey(phone string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	if !phoneKeyPattern.MatchString(cleaned) {
		return "", ErrInvalidPhoneKey
	}
	return cleaned, nil
}

// TraderKey is the lookup form of a trader key: the normalized phone when it
// parses as one, otherwise the trimmed input
func TraderKey(raw string) string {
	if phone, err := NormalizePhoneKey(raw); err == nil {
		return phone
	}
	return strings.TrimSpace(raw)
}
