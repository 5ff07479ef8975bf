package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

// ClientHandlerInterface defines the hotspot client endpoints
type ClientHandlerInterface interface {
	ListReconciledClients(c fiber.Ctx) error
	CreateClient(c fiber.Ctx) error
	SetClientRewarded(c fiber.Ctx) error
}

type ClientHandler struct {
	baseHandler
	clients   businessflow.ClientFlow
	reconcile businessflow.ReconciliationFlow
}

func NewClientHandler(clients businessflow.ClientFlow, reconcile businessflow.ReconciliationFlow) ClientHandlerInterface {
	return &ClientHandler{
		baseHandler: newBaseHandler(),
		clients:     clients,
		reconcile:   reconcile,
	}
}

// ListReconciledClients merges registered clients with live device sessions.
// The response is still 200 when the device is unreachable; source is then
// "local" and warning explains why.
// @Summary Reconciled Clients
// @Tags Clients
// @Produce json
// @Param phone path string true "Trader key"
// @Success 200 {object} dto.APIResponse{data=dto.ReconciledClientsResponse}
// @Failure 404 {object} dto.APIResponse "Trader not found"
// @Router /api/v1/traders/{phone}/clients [get]
func (h *ClientHandler) ListReconciledClients(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/clients")
	defer cancel()

	res, err := h.reconcile.ReconcileClients(ctx, c.Params("phone"))
	if err != nil {
		return h.businessErrorResponse(c, err, "Reconcile clients", "RECONCILE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Clients retrieved", res)
}

// CreateClient registers a hotspot client for the trader
// @Summary Create Client
// @Tags Clients
// @Accept json
// @Produce json
// @Param phone path string true "Trader key"
// @Param request body dto.CreateClientRequest true "Client"
// @Success 201 {object} dto.APIResponse{data=dto.ClientDTO}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Duplicate phone or MAC"
// @Router /api/v1/traders/{phone}/clients [post]
func (h *ClientHandler) CreateClient(c fiber.Ctx) error {
	var req dto.CreateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/clients")
	defer cancel()

	res, err := h.clients.Create(ctx, c.Params("phone"), &req, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Create client", "CLIENT_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Client created", res)
}

// SetClientRewarded flips the rewarded flag of one client
// @Summary Set Client Rewarded
// @Tags Admin Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param phone path string true "Trader key"
// @Param id path int true "Client ID"
// @Param request body dto.SetClientRewardedRequest true "Flag"
// @Success 200 {object} dto.APIResponse{data=dto.ClientDTO}
// @Router /api/v1/admin/traders/{phone}/clients/{id}/rewarded [put]
func (h *ClientHandler) SetClientRewarded(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client id", "INVALID_CLIENT_ID", nil)
	}

	var req dto.SetClientRewardedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/traders/:phone/clients/:id/rewarded")
	defer cancel()

	res, err := h.clients.SetRewarded(ctx, c.Params("phone"), uint(id), *req.Rewarded)
	if err != nil {
		return h.businessErrorResponse(c, err, "Set client rewarded", "CLIENT_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Client updated", res)
}
