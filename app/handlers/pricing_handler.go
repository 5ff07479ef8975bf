package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

// PricingHandlerInterface defines the pricing endpoints
type PricingHandlerInterface interface {
	GetPrice(c fiber.Ctx) error
	ListPricing(c fiber.Ctx) error
	UpdatePricingTier(c fiber.Ctx) error
}

type PricingHandler struct {
	baseHandler
	flow businessflow.PricingFlow
}

func NewPricingHandler(flow businessflow.PricingFlow) PricingHandlerInterface {
	return &PricingHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// GetPrice quotes a price after the trader's best qualifying discount.
// Without base_price the configured base price of the category is used.
// @Summary Price Quote
// @Tags Pricing
// @Produce json
// @Param phone path string true "Trader key"
// @Param category query string true "Pricing category"
// @Param base_price query number false "Base price in major units"
// @Success 200 {object} dto.APIResponse{data=dto.PriceQuoteDTO}
// @Failure 400 {object} dto.APIResponse "Invalid input"
// @Failure 404 {object} dto.APIResponse "Trader or tier not found"
// @Router /api/v1/traders/{phone}/price [get]
func (h *PricingHandler) GetPrice(c fiber.Ctx) error {
	var req dto.PriceQuoteRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/price")
	defer cancel()

	var (
		res *dto.PriceQuoteDTO
		err error
	)
	if req.BasePrice == nil {
		res, err = h.flow.QuoteConfigured(ctx, c.Params("phone"), req.Category)
	} else {
		res, err = h.flow.PriceFor(ctx, c.Params("phone"), req.Category, *req.BasePrice)
	}
	if err != nil {
		return h.businessErrorResponse(c, err, "Quote price", "PRICE_QUOTE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Price calculated", res)
}

// ListPricing returns every configured tier of the trader
// @Summary List Pricing Tiers
// @Tags Pricing
// @Produce json
// @Param phone path string true "Trader key"
// @Success 200 {object} dto.APIResponse{data=[]dto.PricingTierDTO}
// @Router /api/v1/traders/{phone}/pricing [get]
func (h *PricingHandler) ListPricing(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/pricing")
	defer cancel()

	res, err := h.flow.ListPricingTiers(ctx, c.Params("phone"))
	if err != nil {
		return h.businessErrorResponse(c, err, "List pricing tiers", "PRICING_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Pricing tiers retrieved", res)
}

// UpdatePricingTier replaces the base price and discount schedule of a category
// @Summary Update Pricing Tier
// @Tags Admin Pricing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Trader key"
// @Param category path string true "Pricing category"
// @Param request body dto.UpdatePricingTierRequest true "Tier"
// @Success 200 {object} dto.APIResponse{data=dto.PricingTierDTO}
// @Failure 400 {object} dto.APIResponse "Invalid schedule"
// @Router /api/v1/admin/traders/{phone}/pricing/{category} [put]
func (h *PricingHandler) UpdatePricingTier(c fiber.Ctx) error {
	var req dto.UpdatePricingTierRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/traders/:phone/pricing/:category")
	defer cancel()

	res, err := h.flow.UpdatePricingTier(ctx, c.Params("phone"), c.Params("category"), &req, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Update pricing tier", "PRICING_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Pricing tier updated", res)
}
