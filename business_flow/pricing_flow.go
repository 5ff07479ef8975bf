package businessflow

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// PricingFlow computes trader-specific discounted voucher prices
type PricingFlow interface {
	// PriceFor is deterministic for unchanged configuration and qualification score
	PriceFor(ctx context.Context, traderKey, category string, basePrice float64) (*dto.PriceQuoteDTO, error)
	QuoteConfigured(ctx context.Context, traderKey, category string) (*dto.PriceQuoteDTO, error)
	UpdatePricingTier(ctx context.Context, traderKey, category string, req *dto.UpdatePricingTierRequest, metadata *ClientMetadata) (*dto.PricingTierDTO, error)
	ListPricingTiers(ctx context.Context, traderKey string) ([]dto.PricingTierDTO, error)
}

type PricingFlowImpl struct {
	traderRepo repository.TraderRepository
	tierRepo   repository.PricingTierRepository
	policy     QualificationPolicy
	audit      auditRecorder
	currency   string
}

func NewPricingFlow(
	traderRepo repository.TraderRepository,
	tierRepo repository.PricingTierRepository,
	auditRepo repository.AuditLogRepository,
	policy QualificationPolicy,
	currency string,
) PricingFlow {
	if policy == nil {
		policy = NoQualificationPolicy{}
	}
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	return &PricingFlowImpl{
		traderRepo: traderRepo,
		tierRepo:   tierRepo,
		policy:     policy,
		audit:      auditRecorder{repo: auditRepo},
		currency:   currency,
	}
}

func parseCategory(category string) (models.PricingCategory, error) {
	c := models.PricingCategory(strings.ToLower(strings.TrimSpace(category)))
	if !c.Valid() {
		return "", NewBusinessError("INVALID_CATEGORY", "Category must be one of hour, day, week, month", ErrInvalidCategory)
	}
	return c, nil
}

func (f *PricingFlowImpl) PriceFor(ctx context.Context, traderKey, category string, basePrice float64) (*dto.PriceQuoteDTO, error) {
	c, err := parseCategory(category)
	if err != nil {
		return nil, err
	}
	baseMinor, err := utils.ToMinorUnits(basePrice)
	if err != nil {
		return nil, NewBusinessError("INVALID_BASE_PRICE", "Base price must be a finite value greater than or equal to zero", ErrInvalidBasePrice)
	}
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	tier, err := f.tierRepo.ByTraderAndCategory(ctx, trader.ID, c)
	if err != nil {
		return nil, persistenceError("PRICING_LOOKUP_FAILED", "Failed to lookup pricing tier", err)
	}
	return f.quote(ctx, trader, c, baseMinor, tier)
}

func (f *PricingFlowImpl) QuoteConfigured(ctx context.Context, traderKey, category string) (*dto.PriceQuoteDTO, error) {
	c, err := parseCategory(category)
	if err != nil {
		return nil, err
	}
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	tier, err := f.tierRepo.ByTraderAndCategory(ctx, trader.ID, c)
	if err != nil {
		return nil, persistenceError("PRICING_LOOKUP_FAILED", "Failed to lookup pricing tier", err)
	}
	if tier == nil {
		return nil, NewBusinessError("PRICING_TIER_NOT_FOUND", "No pricing is configured for this category", ErrPricingTierNotFound)
	}
	return f.quote(ctx, trader, c, tier.BasePriceMinor, tier)
}

func (f *PricingFlowImpl) quote(ctx context.Context, trader *models.Trader, c models.PricingCategory, baseMinor int64, tier *models.PricingTier) (*dto.PriceQuoteDTO, error) {
	var schedule models.DiscountSchedule
	if tier != nil {
		schedule = tier.Discounts
	}

	var score float64
	if len(schedule) > 0 {
		s, err := f.policy.Score(ctx, trader)
		if err != nil {
			return nil, persistenceError("QUALIFICATION_FAILED", "Failed to compute discount qualification", err)
		}
		score = s
	}

	finalMinor, rule := ApplySchedule(baseMinor, schedule, score)
	out := &dto.PriceQuoteDTO{
		Category:           string(c),
		BasePrice:          utils.FromMinorUnits(baseMinor),
		DiscountApplied:    utils.FromMinorUnits(baseMinor - finalMinor),
		FinalPrice:         utils.FromMinorUnits(finalMinor),
		BasePriceMinor:     baseMinor,
		FinalPriceMinor:    finalMinor,
		QualificationScore: score,
		Currency:           f.currency,
	}
	if rule != nil {
		threshold := rule.Threshold
		out.DiscountPercent = rule.Percent
		out.Threshold = &threshold
	}
	return out, nil
}

// SelectRule returns the qualifying rule with the highest threshold, or nil
func SelectRule(schedule models.DiscountSchedule, score float64) *models.DiscountRule {
	var best *models.DiscountRule
	for i := range schedule {
		r := schedule[i]
		if score < r.Threshold {
			continue
		}
		if best == nil || r.Threshold > best.Threshold {
			best = &r
		}
	}
	return best
}

// ApplySchedule discounts baseMinor by the selected rule, rounding half-up at the minor unit
func ApplySchedule(baseMinor int64, schedule models.DiscountSchedule, score float64) (int64, *models.DiscountRule) {
	rule := SelectRule(schedule, score)
	if rule == nil {
		return baseMinor, nil
	}
	return utils.ApplyDiscountBasisPoints(baseMinor, utils.PercentToBasisPoints(rule.Percent)), rule
}

func (f *PricingFlowImpl) UpdatePricingTier(ctx context.Context, traderKey, category string, req *dto.UpdatePricingTierRequest, metadata *ClientMetadata) (*dto.PricingTierDTO, error) {
	c, err := parseCategory(category)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, NewBusinessError("INVALID_BASE_PRICE", "Pricing request is required", ErrInvalidBasePrice)
	}
	baseMinor, err := utils.ToMinorUnits(req.BasePrice)
	if err != nil {
		return nil, NewBusinessError("INVALID_BASE_PRICE", "Base price must be a finite value greater than or equal to zero", ErrInvalidBasePrice)
	}
	schedule, err := buildSchedule(req.Discounts)
	if err != nil {
		return nil, err
	}

	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}

	tier := &models.PricingTier{
		TraderID:       trader.ID,
		Category:       c,
		BasePriceMinor: baseMinor,
		Discounts:      schedule,
	}
	err = f.tierRepo.Upsert(ctx, tier)
	f.audit.record(ctx, metadata, &trader.ID, models.AuditActionPricingUpdated,
		fmt.Sprintf("%s base price %s with %d discount rules", c, utils.FormatMinor(baseMinor), len(schedule)), err, nil)
	if err != nil {
		return nil, persistenceError("PRICING_UPDATE_FAILED", "Failed to update pricing tier", err)
	}

	out := ToPricingTierDTO(*tier)
	return &out, nil
}

func buildSchedule(rules []dto.DiscountRuleDTO) (models.DiscountSchedule, error) {
	schedule := make(models.DiscountSchedule, 0, len(rules))
	seen := make(map[float64]struct{}, len(rules))
	for _, r := range rules {
		if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) || r.Threshold < 0 ||
			math.IsNaN(r.Percent) || r.Percent < 0 || r.Percent > 100 {
			return nil, NewBusinessError("INVALID_DISCOUNT_RULE", "Discount rules need threshold >= 0 and percent between 0 and 100", ErrInvalidDiscountRule)
		}
		if _, dup := seen[r.Threshold]; dup {
			return nil, NewBusinessErrorf("DUPLICATE_THRESHOLD", "Discount threshold %v appears more than once", ErrDuplicateThreshold, r.Threshold)
		}
		seen[r.Threshold] = struct{}{}
		schedule = append(schedule, models.DiscountRule{Threshold: r.Threshold, Percent: r.Percent})
	}
	sort.Slice(schedule, func(i, j int) bool { return schedule[i].Threshold < schedule[j].Threshold })
	return schedule, nil
}

func (f *PricingFlowImpl) ListPricingTiers(ctx context.Context, traderKey string) ([]dto.PricingTierDTO, error) {
	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		return nil, err
	}
	tiers, err := f.tierRepo.ListByTrader(ctx, trader.ID)
	if err != nil {
		return nil, persistenceError("PRICING_LIST_FAILED", "Failed to list pricing tiers", err)
	}
	out := make([]dto.PricingTierDTO, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, ToPricingTierDTO(*t))
	}
	return out, nil
}
