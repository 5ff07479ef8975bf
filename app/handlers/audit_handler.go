package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

type AuditHandlerInterface interface {
	ListAuditLogs(c fiber.Ctx) error
}

type AuditHandler struct {
	baseHandler
	flow businessflow.AuditFlow
}

func NewAuditHandler(flow businessflow.AuditFlow) AuditHandlerInterface {
	return &AuditHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// ListAuditLogs
// @Summary List Audit Logs
// @Tags Admin Audit
// @Produce json
// @Security BearerAuth
// @Param trader_phone query string false "Trader key"
// @Param failed query bool false "Only failed operations"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.APIResponse{data=[]dto.AuditLogDTO}
// @Router /api/v1/admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c fiber.Ctx) error {
	var req dto.AuditLogListRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/audit-logs")
	defer cancel()

	res, err := h.flow.List(ctx, &req)
	if err != nil {
		return h.businessErrorResponse(c, err, "List audit logs", "AUDIT_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Audit logs retrieved", res)
}
