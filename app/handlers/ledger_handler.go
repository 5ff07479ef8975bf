package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

// LedgerHandlerInterface defines the trader ledger endpoints
type LedgerHandlerInterface interface {
	GetBalance(c fiber.Ctx) error
	ListTransactions(c fiber.Ctx) error
	AppendTransaction(c fiber.Ctx) error
	ExportTransactions(c fiber.Ctx) error
}

type LedgerHandler struct {
	baseHandler
	flow businessflow.LedgerFlow
}

func NewLedgerHandler(flow businessflow.LedgerFlow) LedgerHandlerInterface {
	return &LedgerHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

// GetBalance returns the balance folded from the trader's ledger
// @Summary Trader Balance
// @Tags Ledger
// @Produce json
// @Param phone path string true "Trader key"
// @Success 200 {object} dto.APIResponse{data=dto.BalanceResponse}
// @Failure 404 {object} dto.APIResponse "Trader not found"
// @Router /api/v1/traders/{phone}/balance [get]
func (h *LedgerHandler) GetBalance(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/balance")
	defer cancel()

	res, err := h.flow.BalanceOf(ctx, c.Params("phone"))
	if err != nil {
		return h.businessErrorResponse(c, err, "Get balance", "BALANCE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Balance retrieved", res)
}

// ListTransactions returns most-recent-first history
// @Summary List Transactions
// @Tags Ledger
// @Produce json
// @Param phone path string true "Trader key"
// @Param limit query int false "Maximum number of transactions; omit for the full history"
// @Success 200 {object} dto.APIResponse{data=dto.ListTransactionsResponse}
// @Failure 400 {object} dto.APIResponse "Invalid limit"
// @Router /api/v1/traders/{phone}/transactions [get]
func (h *LedgerHandler) ListTransactions(c fiber.Ctx) error {
	var req dto.ListTransactionsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Limit must be a positive integer", "INVALID_LIMIT", nil)
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/transactions")
	defer cancel()

	res, err := h.flow.ListFor(ctx, c.Params("phone"), req.Limit)
	if err != nil {
		return h.businessErrorResponse(c, err, "List transactions", "TRANSACTION_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Transactions retrieved", res)
}

// AppendTransaction appends one ledger entry
// @Summary Append Transaction
// @Tags Ledger
// @Accept json
// @Produce json
// @Param phone path string true "Trader key"
// @Param Idempotency-Key header string false "Replays return the original transaction"
// @Param request body dto.AppendTransactionRequest true "Transaction"
// @Success 201 {object} dto.APIResponse{data=dto.AppendTransactionResponse}
// @Success 200 {object} dto.APIResponse{data=dto.AppendTransactionResponse} "Replayed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Idempotency conflict"
// @Router /api/v1/traders/{phone}/transactions [post]
func (h *LedgerHandler) AppendTransaction(c fiber.Ctx) error {
	var req dto.AppendTransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.Get("Idempotency-Key")
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/transactions")
	defer cancel()

	res, err := h.flow.Append(ctx, c.Params("phone"), &req, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Append transaction", "TRANSACTION_APPEND_FAILED")
	}
	if res.Replayed {
		return h.SuccessResponse(c, fiber.StatusOK, "Transaction already recorded", res)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Transaction recorded", res)
}

// ExportTransactions downloads the full history as an xlsx workbook
// @Summary Export Transactions
// @Tags Ledger
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param phone path string true "Trader key"
// @Success 200 {file} file
// @Router /api/v1/traders/{phone}/transactions/export [get]
func (h *LedgerHandler) ExportTransactions(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/traders/:phone/transactions/export")
	defer cancel()

	filename, data, err := h.flow.ExportHistory(ctx, c.Params("phone"))
	if err != nil {
		return h.businessErrorResponse(c, err, "Export transactions", "TRANSACTION_EXPORT_FAILED")
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}
