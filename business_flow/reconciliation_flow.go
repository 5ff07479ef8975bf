package businessflow

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/repository"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// ReconciliationSource tells callers which side served a reconciliation
type ReconciliationSource string

const (
	SourceDevice ReconciliationSource = "device"
	SourceLocal  ReconciliationSource = "local"
)

// Fallback warnings name the failure class only
const (
	WarningNoActiveDevice    = "no active device"
	WarningDeviceUnavailable = "device unavailable"
	WarningDeviceProtocol    = "device protocol error"
	WarningDeviceMisconfig   = "device configuration error"
)

var reconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reconciliations_total",
		Help: "Client reconciliations by serving source and fallback reason",
	},
	[]string{"source", "reason"},
)

// ReconciledClient is a local client enriched with at most one live session
type ReconciledClient struct {
	Client   models.Client
	IsActive bool
	Session  *services.Session
}

// Reconciled is the tagged result of one reconciliation. Warning is empty
// when Source is SourceDevice.
type Reconciled struct {
	Source   ReconciliationSource
	Warning  string
	DeviceID *uint
	Clients  []ReconciledClient
}

// ReconciliationFlow merges live device sessions into the local client replica.
// Device failures never fail the call; they downgrade it to the local source.
type ReconciliationFlow interface {
	Reconcile(ctx context.Context, traderKey string) (*Reconciled, error)
	ReconcileClients(ctx context.Context, traderKey string) (*dto.ReconciledClientsResponse, error)
}

type ReconciliationFlowImpl struct {
	traderRepo repository.TraderRepository
	clientRepo repository.ClientRepository
	registry   DeviceRegistryFlow
	tracer     trace.Tracer
}

func NewReconciliationFlow(
	traderRepo repository.TraderRepository,
	clientRepo repository.ClientRepository,
	registry DeviceRegistryFlow,
) ReconciliationFlow {
	return &ReconciliationFlowImpl{
		traderRepo: traderRepo,
		clientRepo: clientRepo,
		registry:   registry,
		tracer:     otel.Tracer("hotspot-ledger/reconciliation"),
	}
}

func (f *ReconciliationFlowImpl) Reconcile(ctx context.Context, traderKey string) (*Reconciled, error) {
	ctx, span := f.tracer.Start(ctx, "reconciliation.reconcile", trace.WithAttributes(
		attribute.String("trader.key", traderKey),
	))
	defer span.End()

	trader, err := lookupTrader(ctx, f.traderRepo, traderKey)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	clients, err := f.clientRepo.ListByTrader(ctx, trader.ID)
	if err != nil {
		span.RecordError(err)
		return nil, persistenceError("CLIENT_LIST_FAILED", "Failed to list clients", err)
	}

	device, err := f.registry.SelectDefault(ctx)
	if err != nil {
		if IsNoActiveDevice(err) {
			return f.fallback(span, clients, nil, WarningNoActiveDevice), nil
		}
		span.RecordError(err)
		return nil, err
	}
	deviceID := device.ID
	span.SetAttributes(attribute.Int("device.id", int(deviceID)))

	client, err := f.registry.ClientFor(ctx, device)
	if err != nil {
		if IsPersistence(err) && !IsDeviceCredentialCorrupt(err) {
			span.RecordError(err)
			return nil, err
		}
		log.Printf("reconciliation: device %d is misconfigured: %v", deviceID, err)
		return f.fallback(span, clients, &deviceID, WarningDeviceMisconfig), nil
	}

	// the client carries the bounded timeout; no retry within one request
	sessions, err := client.ListActiveSessions(ctx)
	if err != nil {
		warning := WarningDeviceUnavailable
		if services.IsDeviceProtocol(err) {
			warning = WarningDeviceProtocol
			log.Printf("reconciliation: device protocol error on device %d: %v", deviceID, err)
		} else {
			log.Printf("reconciliation: device unavailable on device %d: %v", deviceID, err)
		}
		span.RecordError(err)
		return f.fallback(span, clients, &deviceID, warning), nil
	}

	merged := MergeSessions(trader.Phone, clients, sessions)
	reconciliationsTotal.WithLabelValues(string(SourceDevice), "").Inc()
	span.SetAttributes(
		attribute.String("reconciliation.source", string(SourceDevice)),
		attribute.Int("sessions.total", len(sessions)),
	)
	return &Reconciled{
		Source:   SourceDevice,
		DeviceID: &deviceID,
		Clients:  merged,
	}, nil
}

func (f *ReconciliationFlowImpl) fallback(span trace.Span, clients []*models.Client, deviceID *uint, warning string) *Reconciled {
	reconciliationsTotal.WithLabelValues(string(SourceLocal), warning).Inc()
	span.SetAttributes(
		attribute.String("reconciliation.source", string(SourceLocal)),
		attribute.String("reconciliation.warning", warning),
	)
	return &Reconciled{
		Source:   SourceLocal,
		Warning:  warning,
		DeviceID: deviceID,
		Clients:  MergeSessions("", clients, nil),
	}
}

// MergeSessions pairs each client with the first session whose server tag
// equals traderKey and whose MAC matches after normalization. Both tag and key
// are compared in utils.TraderKey form. Clients keep their input order.
func MergeSessions(traderKey string, clients []*models.Client, sessions []services.Session) []ReconciledClient {
	traderKey = utils.TraderKey(traderKey)
	byMAC := make(map[string]services.Session, len(sessions))
	for _, s := range sessions {
		if utils.TraderKey(s.ServerTag) != traderKey {
			continue
		}
		key := utils.MACKey(s.MACAddress)
		if key == "" {
			continue
		}
		if _, seen := byMAC[key]; seen {
			continue
		}
		byMAC[key] = s
	}

	out := make([]ReconciledClient, 0, len(clients))
	for _, c := range clients {
		if c == nil {
			continue
		}
		rc := ReconciledClient{Client: *c}
		if s, ok := byMAC[utils.MACKey(c.MACAddress)]; ok {
			session := s
			rc.IsActive = true
			rc.Session = &session
		}
		out = append(out, rc)
	}
	return out
}

func (f *ReconciliationFlowImpl) ReconcileClients(ctx context.Context, traderKey string) (*dto.ReconciledClientsResponse, error) {
	result, err := f.Reconcile(ctx, traderKey)
	if err != nil {
		return nil, err
	}
	return ToReconciledClientsResponse(result), nil
}

func ToReconciledClientsResponse(r *Reconciled) *dto.ReconciledClientsResponse {
	clients := make([]dto.ReconciledClientDTO, 0, len(r.Clients))
	for _, rc := range r.Clients {
		item := dto.ReconciledClientDTO{
			ClientDTO: ToClientDTO(rc.Client),
			IsActive:  rc.IsActive,
		}
		if rc.Session != nil {
			item.SessionData = &dto.SessionDataDTO{
				SessionID:  rc.Session.ID,
				MACAddress: rc.Session.MACAddress,
				Username:   rc.Session.Username,
				Address:    rc.Session.Address,
				Uptime:     rc.Session.Uptime,
				BytesIn:    rc.Session.BytesIn,
				BytesOut:   rc.Session.BytesOut,
				ServerTag:  rc.Session.ServerTag,
			}
		}
		clients = append(clients, item)
	}
	return &dto.ReconciledClientsResponse{
		Source:   string(r.Source),
		Warning:  r.Warning,
		DeviceID: r.DeviceID,
		Clients:  clients,
	}
}
