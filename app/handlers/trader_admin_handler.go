package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

// TraderAdminHandlerInterface defines the trader administration endpoints
type TraderAdminHandlerInterface interface {
	CreateTrader(c fiber.Ctx) error
	ListTraders(c fiber.Ctx) error
	GetTrader(c fiber.Ctx) error
	ActivateTrader(c fiber.Ctx) error
	DeactivateTrader(c fiber.Ctx) error
}

type TraderAdminHandler struct {
	baseHandler
	flow businessflow.TraderFlow
}

func NewTraderAdminHandler(flow businessflow.TraderFlow) TraderAdminHandlerInterface {
	return &TraderAdminHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// CreateTrader
// @Summary Create Trader
// @Tags Admin Traders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTraderRequest true "Trader"
// @Success 201 {object} dto.APIResponse{data=dto.TraderDTO}
// @Failure 409 {object} dto.APIResponse "Trader already exists"
// @Router /api/v1/admin/traders [post]
func (h *TraderAdminHandler) CreateTrader(c fiber.Ctx) error {
	var req dto.CreateTraderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/traders")
	defer cancel()

	res, err := h.flow.Create(ctx, &req, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Create trader", "TRADER_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Trader created", res)
}

// ListTraders
// @Summary List Traders
// @Tags Admin Traders
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} dto.APIResponse{data=[]dto.TraderDTO}
// @Router /api/v1/admin/traders [get]
func (h *TraderAdminHandler) ListTraders(c fiber.Ctx) error {
	var req dto.ListTradersRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/traders")
	defer cancel()

	res, err := h.flow.List(ctx, &req)
	if err != nil {
		return h.businessErrorResponse(c, err, "List traders", "TRADER_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Traders retrieved", res)
}

// GetTrader
// @Summary Get Trader
// @Tags Admin Traders
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Trader key"
// @Success 200 {object} dto.APIResponse{data=dto.TraderDTO}
// @Router /api/v1/admin/traders/{phone} [get]
func (h *TraderAdminHandler) GetTrader(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/traders/:phone")
	defer cancel()

	res, err := h.flow.Get(ctx, c.Params("phone"))
	if err != nil {
		return h.businessErrorResponse(c, err, "Get trader", "TRADER_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Trader retrieved", res)
}

// ActivateTrader
// @Summary Activate Trader
// @Tags Admin Traders
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Trader key"
// @Success 200 {object} dto.APIResponse{data=dto.TraderDTO}
// @Router /api/v1/admin/traders/{phone}/activate [post]
func (h *TraderAdminHandler) ActivateTrader(c fiber.Ctx) error {
	return h.setActive(c, true, "/api/v1/admin/traders/:phone/activate")
}

// DeactivateTrader
// @Summary Deactivate Trader
// @Tags Admin Traders
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Trader key"
// @Success 200 {object} dto.APIResponse{data=dto.TraderDTO}
// @Router /api/v1/admin/traders/{phone}/deactivate [post]
func (h *TraderAdminHandler) DeactivateTrader(c fiber.Ctx) error {
	return h.setActive(c, false, "/api/v1/admin/traders/:phone/deactivate")
}

func (h *TraderAdminHandler) setActive(c fiber.Ctx, active bool, endpoint string) error {
	ctx, cancel := h.createRequestContext(c, endpoint)
	defer cancel()

	res, err := h.flow.SetActive(ctx, c.Params("phone"), active, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Update trader", "TRADER_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Trader updated", res)
}
