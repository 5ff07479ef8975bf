package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

// AdminHandlerInterface defines the contract for admin auth handlers
type AdminHandlerInterface interface {
	Login(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AdminHandler implements AdminHandlerInterface
type AdminHandler struct {
	baseHandler
	flow businessflow.AdminAuthFlow
}

func NewAdminHandler(flow businessflow.AdminAuthFlow) AdminHandlerInterface {
	return &AdminHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// Login exchanges the admin credentials for a bearer token
// @Summary Admin login
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Incorrect credentials"
// @Router /api/v1/admin/auth/token [post]
func (h *AdminHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/auth/token")
	defer cancel()

	res, err := h.flow.Login(ctx, &req, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Admin login", "ADMIN_LOGIN_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", res)
}

// Logout revokes the bearer token that authenticated the request
// @Summary Admin logout
// @Tags Admin Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logout successful"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/admin/auth/logout [post]
func (h *AdminHandler) Logout(c fiber.Ctx) error {
	token, _ := c.Locals("access_token").(string)

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/auth/logout")
	defer cancel()

	if err := h.flow.Logout(ctx, token, h.metadata(c)); err != nil {
		return h.businessErrorResponse(c, err, "Admin logout", "ADMIN_LOGOUT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Logout successful", nil)
}
