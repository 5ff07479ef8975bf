package businessflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// DeviceRegistryFlow owns the configured hotspot controllers and builds
// Device Clients from them. The first active device in id order is the default.
type DeviceRegistryFlow interface {
	ListDevices(ctx context.Context) ([]dto.DeviceDTO, error)
	ListActive(ctx context.Context) ([]*models.Device, error)
	Get(ctx context.Context, id uint) (*dto.DeviceDTO, error)
	SelectDefault(ctx context.Context) (*models.Device, error)
	Upsert(ctx context.Context, req *dto.UpsertDeviceRequest, metadata *ClientMetadata) (*dto.DeviceDTO, error)
	Remove(ctx context.Context, id uint, metadata *ClientMetadata) error

	// ClientFor builds a client holding its own copy of the device parameters
	ClientFor(ctx context.Context, device *models.Device) (services.DeviceClient, error)
	// Probe tests connectivity and records last_seen_at on success
	Probe(ctx context.Context, device *models.Device) (bool, error)

	TestDevice(ctx context.Context, id uint) (*dto.DeviceTestResponse, error)
	ListUsers(ctx context.Context, id uint) ([]dto.DeviceUserDTO, error)
	ListInterfaces(ctx context.Context, id uint) ([]dto.DeviceInterfaceDTO, error)
	DisconnectSession(ctx context.Context, id uint, sessionID string, metadata *ClientMetadata) error
}

type DeviceRegistryFlowImpl struct {
	deviceRepo repository.DeviceRepository
	factory    services.DeviceClientFactory
	cipher     services.CredentialCipher
	audit      auditRecorder
	cfg        config.DeviceConfig
}

func NewDeviceRegistryFlow(
	deviceRepo repository.DeviceRepository,
	auditRepo repository.AuditLogRepository,
	factory services.DeviceClientFactory,
	cipher services.CredentialCipher,
	cfg config.DeviceConfig,
) DeviceRegistryFlow {
	return &DeviceRegistryFlowImpl{
		deviceRepo: deviceRepo,
		factory:    factory,
		cipher:     cipher,
		audit:      auditRecorder{repo: auditRepo},
		cfg:        cfg,
	}
}

func (f *DeviceRegistryFlowImpl) ListDevices(ctx context.Context) ([]dto.DeviceDTO, error) {
	devices, err := f.deviceRepo.ListAll(ctx)
	if err != nil {
		return nil, persistenceError("DEVICE_LIST_FAILED", "Failed to list devices", err)
	}
	out := make([]dto.DeviceDTO, 0, len(devices))
	for _, d := range devices {
		out = append(out, ToDeviceDTO(*d))
	}
	return out, nil
}

func (f *DeviceRegistryFlowImpl) ListActive(ctx context.Context) ([]*models.Device, error) {
	devices, err := f.deviceRepo.ListActive(ctx)
	if err != nil {
		return nil, persistenceError("DEVICE_LIST_FAILED", "Failed to list active devices", err)
	}
	return devices, nil
}

func (f *DeviceRegistryFlowImpl) Get(ctx context.Context, id uint) (*dto.DeviceDTO, error) {
	device, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToDeviceDTO(*device)
	return &out, nil
}

func (f *DeviceRegistryFlowImpl) load(ctx context.Context, id uint) (*models.Device, error) {
	device, err := f.deviceRepo.ByID(ctx, id)
	if err != nil {
		return nil, persistenceError("DEVICE_LOOKUP_FAILED", "Failed to lookup device", err)
	}
	if device == nil {
		return nil, NewBusinessError("DEVICE_NOT_FOUND", "Device not found", ErrDeviceNotFound)
	}
	return device, nil
}

func (f *DeviceRegistryFlowImpl) SelectDefault(ctx context.Context) (*models.Device, error) {
	devices, err := f.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d != nil && d.Active() {
			return d, nil
		}
	}
	return nil, NewBusinessError("NO_ACTIVE_DEVICE", "No active device is configured", ErrNoActiveDevice)
}

func (f *DeviceRegistryFlowImpl) Upsert(ctx context.Context, req *dto.UpsertDeviceRequest, metadata *ClientMetadata) (*dto.DeviceDTO, error) {
	if req == nil {
		return nil, NewBusinessError("DEVICE_VALIDATION_FAILED", "Device request is required", ErrInvalidDeviceConfig)
	}

	var (
		device   *models.Device
		creating = req.ID == nil || *req.ID == 0
	)
	if creating {
		if req.Password == "" {
			return nil, NewBusinessError("DEVICE_PASSWORD_REQUIRED", "Device password is required", ErrDevicePasswordRequired)
		}
		device = &models.Device{
			UseTLS:   utils.ToPtr(f.cfg.UseTLS),
			IsActive: utils.ToPtr(true),
		}
	} else {
		existing, err := f.load(ctx, *req.ID)
		if err != nil {
			return nil, err
		}
		device = existing
	}

	device.DisplayName = strings.TrimSpace(req.DisplayName)
	device.Host = strings.TrimSpace(req.Host)
	device.Username = strings.TrimSpace(req.Username)
	device.Family = models.DeviceFamily(strings.TrimSpace(req.Family))
	if device.Family == "" {
		device.Family = models.DeviceFamilyRouterOS
	}
	if req.UseTLS != nil {
		device.UseTLS = utils.ToPtr(*req.UseTLS)
	}
	if req.IsActive != nil {
		device.IsActive = utils.ToPtr(*req.IsActive)
	}
	device.Port = req.Port
	if device.Port == 0 {
		device.Port = utils.DefaultRouterOSPort
		if utils.IsTrue(device.UseTLS) {
			device.Port = utils.DefaultRouterOSTLSPort
		}
	}

	params := services.DeviceParams{
		Family:   device.Family,
		Host:     device.Host,
		Port:     device.Port,
		Username: device.Username,
	}
	if err := params.Validate(); err != nil {
		return nil, NewBusinessErrorf("DEVICE_VALIDATION_FAILED", "Device configuration is invalid: %s", ErrInvalidDeviceConfig, err.Error())
	}
	if device.Family != models.DeviceFamilyRouterOS {
		return nil, NewBusinessError("DEVICE_VALIDATION_FAILED", "Unsupported device family", ErrInvalidDeviceConfig)
	}

	if req.Password != "" {
		sealed, err := f.cipher.Seal(req.Password)
		if err != nil {
			return nil, NewBusinessError("DEVICE_CREDENTIAL_SEAL_FAILED", "Failed to protect device credential", err)
		}
		device.PasswordCipher = sealed
	}

	action := "created"
	var err error
	if creating {
		err = f.deviceRepo.Save(ctx, device)
	} else {
		action = "updated"
		err = f.deviceRepo.Update(ctx, device)
	}
	f.audit.record(ctx, metadata, nil, models.AuditActionDeviceUpserted,
		fmt.Sprintf("device %s %s", device.DisplayName, action), err, map[string]any{"device_id": device.ID})
	if err != nil {
		return nil, persistenceError("DEVICE_SAVE_FAILED", "Failed to save device", err)
	}

	out := ToDeviceDTO(*device)
	return &out, nil
}

func (f *DeviceRegistryFlowImpl) Remove(ctx context.Context, id uint, metadata *ClientMetadata) error {
	device, err := f.load(ctx, id)
	if err != nil {
		return err
	}
	// in-flight clients keep their own params, so a soft delete is safe at any time
	err = f.deviceRepo.Delete(ctx, device.ID)
	f.audit.record(ctx, metadata, nil, models.AuditActionDeviceRemoved,
		fmt.Sprintf("device %s removed", device.DisplayName), err, map[string]any{"device_id": device.ID})
	if err != nil {
		return persistenceError("DEVICE_REMOVE_FAILED", "Failed to remove device", err)
	}
	return nil
}

// paramsFor decrypts the stored credential into a fresh value copy
func (f *DeviceRegistryFlowImpl) paramsFor(device *models.Device) (services.DeviceParams, error) {
	password, err := f.cipher.Open(device.PasswordCipher)
	if err != nil {
		log.Printf("device registry: credential of device %d cannot be opened: %v", device.ID, err)
		return services.DeviceParams{}, NewBusinessError("DEVICE_CREDENTIAL_CORRUPT", "Stored device credential is unusable", ErrDeviceCredentialCorrupt)
	}
	return services.DeviceParams{
		DeviceID:           device.ID,
		Name:               device.DisplayName,
		Family:             device.Family,
		Host:               device.Host,
		Port:               device.Port,
		Username:           device.Username,
		Password:           password,
		UseTLS:             utils.IsTrue(device.UseTLS),
		InsecureSkipVerify: f.cfg.InsecureSkipVerify,
		Timeout:            f.cfg.Timeout,
	}, nil
}

func (f *DeviceRegistryFlowImpl) ClientFor(ctx context.Context, device *models.Device) (services.DeviceClient, error) {
	if device == nil {
		return nil, NewBusinessError("DEVICE_NOT_FOUND", "Device not found", ErrDeviceNotFound)
	}
	params, err := f.paramsFor(device)
	if err != nil {
		return nil, err
	}
	client, err := f.factory.New(params)
	if err != nil {
		return nil, NewBusinessErrorf("DEVICE_VALIDATION_FAILED", "Device configuration is invalid: %s", ErrInvalidDeviceConfig, err.Error())
	}
	return client, nil
}

func (f *DeviceRegistryFlowImpl) Probe(ctx context.Context, device *models.Device) (bool, error) {
	client, err := f.ClientFor(ctx, device)
	if err != nil {
		return false, err
	}
	reachable, err := client.TestConnection(ctx)
	if err != nil {
		return false, NewBusinessErrorf("DEVICE_VALIDATION_FAILED", "Device configuration is invalid: %s", ErrInvalidDeviceConfig, err.Error())
	}
	if reachable {
		if err := f.deviceRepo.TouchLastSeen(ctx, device.ID, utils.UTCNow()); err != nil {
			log.Printf("device registry: failed to record last seen for device %d: %v", device.ID, err)
		}
	}
	return reachable, nil
}

func (f *DeviceRegistryFlowImpl) TestDevice(ctx context.Context, id uint) (*dto.DeviceTestResponse, error) {
	device, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	reachable, err := f.Probe(ctx, device)
	if err != nil {
		return nil, err
	}
	services.RecordDeviceReachability(device.DisplayName, reachable)
	return &dto.DeviceTestResponse{
		DeviceID:  device.ID,
		Reachable: reachable,
		CheckedAt: formatTime(utils.UTCNow()),
	}, nil
}

func (f *DeviceRegistryFlowImpl) ListUsers(ctx context.Context, id uint) ([]dto.DeviceUserDTO, error) {
	client, err := f.clientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	users, err := client.ListUsers(ctx)
	if err != nil {
		return nil, deviceCallError(id, "list users", err)
	}
	out := make([]dto.DeviceUserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.DeviceUserDTO{
			ID:         u.ID,
			Name:       u.Name,
			Profile:    u.Profile,
			MACAddress: u.MACAddress,
			Server:     u.Server,
			Comment:    u.Comment,
			Disabled:   u.Disabled,
		})
	}
	return out, nil
}

func (f *DeviceRegistryFlowImpl) ListInterfaces(ctx context.Context, id uint) ([]dto.DeviceInterfaceDTO, error) {
	client, err := f.clientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ifaces, err := client.ListAvailableInterfaces(ctx)
	if err != nil {
		return nil, deviceCallError(id, "list interfaces", err)
	}
	out := make([]dto.DeviceInterfaceDTO, 0, len(ifaces))
	for _, i := range ifaces {
		out = append(out, dto.DeviceInterfaceDTO{
			ID:         i.ID,
			Name:       i.Name,
			Type:       i.Type,
			MACAddress: i.MACAddress,
			Running:    i.Running,
			Disabled:   i.Disabled,
		})
	}
	return out, nil
}

func (f *DeviceRegistryFlowImpl) DisconnectSession(ctx context.Context, id uint, sessionID string, metadata *ClientMetadata) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return NewBusinessError("SESSION_ID_REQUIRED", "Session id is required", ErrSessionIDRequired)
	}
	client, err := f.clientByID(ctx, id)
	if err != nil {
		return err
	}
	callErr := client.DisconnectSession(ctx, sessionID)
	f.audit.record(ctx, metadata, nil, models.AuditActionSessionDisconnected,
		fmt.Sprintf("session %s on device %d", sessionID, id), callErr, nil)
	if callErr != nil {
		return deviceCallError(id, "disconnect session", callErr)
	}
	return nil
}

func (f *DeviceRegistryFlowImpl) clientByID(ctx context.Context, id uint) (services.DeviceClient, error) {
	device, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.ClientFor(ctx, device)
}

// deviceCallError turns a device failure into a business error without
// leaking the transport error text; the raw error is only logged
func deviceCallError(deviceID uint, op string, err error) error {
	switch {
	case errors.Is(err, services.ErrDeviceSessionNotFound):
		return NewBusinessError("DEVICE_SESSION_NOT_FOUND", "Session not found on device", ErrDeviceSessionNotFound)
	case services.IsDeviceProtocol(err):
		log.Printf("device registry: device protocol error on device %d during %s: %v", deviceID, op, err)
		return NewBusinessError("DEVICE_PROTOCOL_ERROR", "Device returned an unusable response", ErrDeviceProtocol)
	default:
		log.Printf("device registry: device unavailable on device %d during %s: %v", deviceID, op, err)
		return NewBusinessError("DEVICE_UNAVAILABLE", "Device is unavailable", ErrDeviceUnavailable)
	}
}
