package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PricingCategory is the voucher duration a price applies to
type PricingCategory string

const (
	PricingCategoryHour  PricingCategory = "hour"
	PricingCategoryDay   PricingCategory = "day"
	PricingCategoryWeek  PricingCategory = "week"
	PricingCategoryMonth PricingCategory = "month"
)

// PricingCategories lists the accepted categories in display order
var PricingCategories = []PricingCategory{
	PricingCategoryHour,
	PricingCategoryDay,
	PricingCategoryWeek,
	PricingCategoryMonth,
}

// Valid reports whether c is one of hour, day, week or month
func (c PricingCategory) Valid() bool {
	for _, known := range PricingCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DiscountRule grants Percent off once a trader's qualification score reaches Threshold
type DiscountRule struct {
	Threshold float64 `json:"threshold"`
	Percent   float64 `json:"percent"`
}

// DiscountSchedule is stored as a jsonb array sorted by threshold
type DiscountSchedule []DiscountRule

// Value implements driver.Valuer
func (s DiscountSchedule) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *DiscountSchedule) Scan(value any) error {
	if value == nil {
		*s = DiscountSchedule{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported discount schedule type %T", value)
	}
	return json.Unmarshal(raw, s)
}

// PricingTier holds a trader's base price and discount schedule for one category
type PricingTier struct {
	ID             uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	TraderID       uint             `gorm:"not null;uniqueIndex:uk_pricing_tiers_trader_category,priority:1" json:"trader_id"`
	Category       PricingCategory  `gorm:"type:varchar(10);not null;uniqueIndex:uk_pricing_tiers_trader_category,priority:2" json:"category"`
	BasePriceMinor int64            `gorm:"not null;default:0" json:"base_price_minor"`
	Discounts      DiscountSchedule `gorm:"type:jsonb;not null;default:'[]'" json:"discounts"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PricingTier) TableName() string {
	return "pricing_tiers"
}

// PricingTierFilter represents filter criteria for pricing tier queries
type PricingTierFilter struct {
	ID       *uint
	TraderID *uint
	Category *PricingCategory
}
