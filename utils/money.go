package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrAmountNotFinite = errors.New("amount must be a finite number")
	ErrAmountNegative  = errors.New("amount must be greater than or equal to zero")
	ErrAmountTooLarge  = errors.New("amount exceeds the supported range")
)

// maxMajorAmount keeps minor-unit arithmetic far away from int64 overflow
const maxMajorAmount = 1e12

// ToMinorUnits converts a non-negative major-unit amount into minor units,
// rounding half-up at the minor unit. The decimal string form is used so that
// values such as 8.005 round to 801 instead of being truncated by binary error.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, ErrAmountNotFinite
	}
	if amount < 0 {
		return 0, ErrAmountNegative
	}
	if amount > maxMajorAmount {
		return 0, ErrAmountTooLarge
	}

	// The shortest decimal form round-trips to the same float, so the digit
	// after the minor unit alone decides the half-up step.
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")
	for len(fracPart) <= CurrencyMinorUnitDigits {
		fracPart += "0"
	}
	scaled, err := strconv.ParseInt(intPart+fracPart[:CurrencyMinorUnitDigits], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("convert amount %v: %w", amount, err)
	}
	if fracPart[CurrencyMinorUnitDigits] >= '5' {
		scaled++
	}
	return scaled, nil
}

// FromMinorUnits converts minor units back into a major-unit float for display
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / MinorUnitsPerMajor
}

// AbsMinor returns the magnitude of a stored minor-unit amount
func AbsMinor(minor int64) int64 {
	if minor < 0 {
		return -minor
	}
	return minor
}

// FormatMinor renders minor units with exactly CurrencyMinorUnitDigits decimals
func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/MinorUnitsPerMajor, minor%MinorUnitsPerMajor)
}

// ApplyDiscountBasisPoints returns base reduced by bps/10000, rounded half-up
// at the minor unit. bps must be within [0, 10000].
func ApplyDiscountBasisPoints(baseMinor, bps int64) int64 {
	if bps <= 0 {
		return baseMinor
	}
	if bps >= 10000 {
		return 0
	}
	return (baseMinor*(10000-bps) + 5000) / 10000
}

// PercentToBasisPoints converts a percentage such as 12.5 into 1250 basis points
func PercentToBasisPoints(percent float64) int64 {
	return int64(math.Floor(percent*100 + 0.5))
}
