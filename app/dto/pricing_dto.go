package dto

type PriceQuoteRequest struct {
	Category  string   `query:"category" validate:"required"`
	BasePrice *float64 `query:"base_price"`
}

type PriceQuoteDTO struct {
	Category           string   `json:"category"`
	BasePrice          float64  `json:"base_price"`
	DiscountApplied    float64  `json:"discount_applied"`
	DiscountPercent    float64  `json:"discount_percent"`
	Threshold          *float64 `json:"threshold,omitempty"`
	FinalPrice         float64  `json:"final_price"`
	BasePriceMinor     int64    `json:"base_price_minor"`
	FinalPriceMinor    int64    `json:"final_price_minor"`
	QualificationScore float64  `json:"qualification_score"`
	Currency           string   `json:"currency"`
}

type DiscountRuleDTO struct {
	Threshold float64 `json:"threshold" validate:"gte=0"`
	Percent   float64 `json:"percent" validate:"gte=0,lte=100"`
}

type UpdatePricingTierRequest struct {
	BasePrice float64           `json:"base_price" validate:"gte=0"`
	Discounts []DiscountRuleDTO `json:"discounts" validate:"omitempty,max=50,dive"`
}

type PricingTierDTO struct {
	Category       string            `json:"category"`
	BasePrice      float64           `json:"base_price"`
	BasePriceMinor int64             `json:"base_price_minor"`
	Discounts      []DiscountRuleDTO `json:"discounts"`
	UpdatedAt      string            `json:"updated_at"`
}
