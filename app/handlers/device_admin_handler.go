package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	businessflow "github.com/amirphl/Hotspot-Ledger/business_flow"
)

// DeviceAdminHandlerInterface defines the device registry admin endpoints
type DeviceAdminHandlerInterface interface {
	ListDevices(c fiber.Ctx) error
	UpsertDevice(c fiber.Ctx) error
	GetDevice(c fiber.Ctx) error
	DeleteDevice(c fiber.Ctx) error
	TestDevice(c fiber.Ctx) error
	ListDeviceUsers(c fiber.Ctx) error
	ListDeviceInterfaces(c fiber.Ctx) error
	DisconnectSession(c fiber.Ctx) error
}

type DeviceAdminHandler struct {
	baseHandler
	flow businessflow.DeviceRegistryFlow
}

func NewDeviceAdminHandler(flow businessflow.DeviceRegistryFlow) DeviceAdminHandlerInterface {
	return &DeviceAdminHandler{
		baseHandler: newBaseHandler(),
		flow:        flow,
	}
}

func (h *DeviceAdminHandler) deviceID(c fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *DeviceAdminHandler) invalidID(c fiber.Ctx) error {
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid device id", "INVALID_DEVICE_ID", nil)
}

// ListDevices
// @Summary List Devices
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.DeviceDTO}
// @Router /api/v1/admin/devices [get]
func (h *DeviceAdminHandler) ListDevices(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices")
	defer cancel()

	res, err := h.flow.ListDevices(ctx)
	if err != nil {
		return h.businessErrorResponse(c, err, "List devices", "DEVICE_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Devices retrieved", res)
}

// UpsertDevice creates a device, or updates it when id is set. Passwords are
// stored sealed and never returned.
// @Summary Upsert Device
// @Tags Admin Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpsertDeviceRequest true "Device"
// @Success 200 {object} dto.APIResponse{data=dto.DeviceDTO}
// @Failure 400 {object} dto.APIResponse "Invalid device configuration"
// @Router /api/v1/admin/devices [post]
func (h *DeviceAdminHandler) UpsertDevice(c fiber.Ctx) error {
	var req dto.UpsertDeviceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if resp := h.validate(c, &req); resp != nil {
		return resp
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices")
	defer cancel()

	res, err := h.flow.Upsert(ctx, &req, h.metadata(c))
	if err != nil {
		return h.businessErrorResponse(c, err, "Upsert device", "DEVICE_UPSERT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Device saved", res)
}

// GetDevice
// @Summary Get Device
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Device ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeviceDTO}
// @Failure 404 {object} dto.APIResponse "Device not found"
// @Router /api/v1/admin/devices/{id} [get]
func (h *DeviceAdminHandler) GetDevice(c fiber.Ctx) error {
	id, ok := h.deviceID(c)
	if !ok {
		return h.invalidID(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices/:id")
	defer cancel()

	res, err := h.flow.Get(ctx, id)
	if err != nil {
		return h.businessErrorResponse(c, err, "Get device", "DEVICE_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Device retrieved", res)
}

// DeleteDevice
// @Summary Delete Device
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Device ID"
// @Success 200 {object} dto.APIResponse
// @Router /api/v1/admin/devices/{id} [delete]
func (h *DeviceAdminHandler) DeleteDevice(c fiber.Ctx) error {
	id, ok := h.deviceID(c)
	if !ok {
		return h.invalidID(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices/:id")
	defer cancel()

	if err := h.flow.Remove(ctx, id, h.metadata(c)); err != nil {
		return h.businessErrorResponse(c, err, "Delete device", "DEVICE_DELETE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Device deleted", nil)
}

// TestDevice probes the device. An unreachable device is a 200 with reachable=false.
// @Summary Test Device
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Device ID"
// @Success 200 {object} dto.APIResponse{data=dto.DeviceTestResponse}
// @Router /api/v1/admin/devices/{id}/test [post]
func (h *DeviceAdminHandler) TestDevice(c fiber.Ctx) error {
	id, ok := h.deviceID(c)
	if !ok {
		return h.invalidID(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices/:id/test")
	defer cancel()

	res, err := h.flow.TestDevice(ctx, id)
	if err != nil {
		return h.businessErrorResponse(c, err, "Test device", "DEVICE_TEST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Device tested", res)
}

// ListDeviceUsers
// @Summary List Device Hotspot Users
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Device ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.DeviceUserDTO}
// @Failure 502 {object} dto.APIResponse "Device protocol error"
// @Failure 503 {object} dto.APIResponse "Device unavailable"
// @Router /api/v1/admin/devices/{id}/users [get]
func (h *DeviceAdminHandler) ListDeviceUsers(c fiber.Ctx) error {
	id, ok := h.deviceID(c)
	if !ok {
		return h.invalidID(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices/:id/users")
	defer cancel()

	res, err := h.flow.ListUsers(ctx, id)
	if err != nil {
		return h.businessErrorResponse(c, err, "List device users", "DEVICE_USERS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Device users retrieved", res)
}

// ListDeviceInterfaces
// @Summary List Device Interfaces
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Device ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.DeviceInterfaceDTO}
// @Router /api/v1/admin/devices/{id}/interfaces [get]
func (h *DeviceAdminHandler) ListDeviceInterfaces(c fiber.Ctx) error {
	id, ok := h.deviceID(c)
	if !ok {
		return h.invalidID(c)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices/:id/interfaces")
	defer cancel()

	res, err := h.flow.ListInterfaces(ctx, id)
	if err != nil {
		return h.businessErrorResponse(c, err, "List device interfaces", "DEVICE_INTERFACES_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Device interfaces retrieved", res)
}

// DisconnectSession removes one active hotspot session from the device
// @Summary Disconnect Session
// @Tags Admin Devices
// @Produce json
// @Security BearerAuth
// @Param id path int true "Device ID"
// @Param session_id path string true "Device session ID"
// @Success 200 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Router /api/v1/admin/devices/{id}/sessions/{session_id} [delete]
func (h *DeviceAdminHandler) DisconnectSession(c fiber.Ctx) error {
	id, ok := h.deviceID(c)
	if !ok {
		return h.invalidID(c)
	}
	sessionID := c.Params("session_id")
	if sessionID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Session id is required", "INVALID_SESSION_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/devices/:id/sessions/:session_id")
	defer cancel()

	if err := h.flow.DisconnectSession(ctx, id, sessionID, h.metadata(c)); err != nil {
		return h.businessErrorResponse(c, err, "Disconnect session", "DEVICE_DISCONNECT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Session disconnected", nil)
}
