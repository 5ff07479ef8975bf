// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

const defaultRequestTimeout = 30 * time.Second

// baseHandler carries the response envelope helpers shared by every handler
type baseHandler struct {
	validator *validator.Validate
}

func newBaseHandler() baseHandler {
	return baseHandler{validator: validator.New()}
}

func (h baseHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h baseHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// validate returns a ready-to-send 400 response, or nil when req is valid
func (h baseHandler) validate(c fiber.Ctx, req any) error {
	err := h.validator.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors []string
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range fieldErrors {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
	} else {
		validationErrors = append(validationErrors, err.Error())
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
}

// createRequestContext copies request-scoped values into a fresh context.
// The caller must invoke the returned cancel func.
func (h baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, defaultRequestTimeout)
}

func (h baseHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	if admin, ok := c.Locals(string(utils.AdminKey)).(string); ok && admin != "" {
		ctx = context.WithValue(ctx, utils.AdminKey, admin)
	}
	return ctx, cancel
}

func (h baseHandler) metadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	return metadata
}

func requestID(c fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}

// businessErrorResponse maps the error taxonomy onto HTTP status codes.
// Unexpected errors are logged and reported without their text.
func (h baseHandler) businessErrorResponse(c fiber.Ctx, err error, action, fallbackCode string) error {
	code := businessflow.BusinessCode(err)
	if code == "" {
		code = fallbackCode
	}
	message := businessMessage(err)
	switch {
	case businessflow.IsTraderAlreadyExists(err), businessflow.IsClientPhoneExists(err), businessflow.IsClientMACExists(err), businessflow.IsConflict(err):
		return h.ErrorResponse(c, fiber.StatusConflict, message, code, nil)
	case businessflow.IsValidation(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, message, code, nil)
	case businessflow.IsNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, message, code, nil)
	case businessflow.IsUnauthorized(err):
		return h.ErrorResponse(c, fiber.StatusUnauthorized, message, code, nil)
	case businessflow.IsDeviceUnavailable(err):
		return h.ErrorResponse(c, fiber.StatusServiceUnavailable, message, code, nil)
	case businessflow.IsDeviceProtocol(err):
		return h.ErrorResponse(c, fiber.StatusBadGateway, message, code, nil)
	}
	log.Println(action+" failed:", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, action+" failed", fallbackCode, nil)
}

func businessMessage(err error) string {
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
