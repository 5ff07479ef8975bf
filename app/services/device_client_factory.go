package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// DeviceClientFactoryImpl builds clients per call. It keeps only breaker and
// limiter state per device address, never connections.
type DeviceClientFactoryImpl struct {
	cfg    config.DeviceConfig
	mu     sync.Mutex
	guards map[string]*deviceGuard
}

// NewDeviceClientFactory creates a new device client factory
func NewDeviceClientFactory(cfg config.DeviceConfig) DeviceClientFactory {
	return &DeviceClientFactoryImpl{
		cfg:    cfg,
		guards: make(map[string]*deviceGuard),
	}
}

// New validates params and returns a client for the device family
func (f *DeviceClientFactoryImpl) New(params DeviceParams) (DeviceClient, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	params.Timeout = utils.ClampDuration(params.Timeout, f.cfg.Timeout, utils.MinDeviceTimeout, utils.MaxDeviceTimeout)
	if f.cfg.InsecureSkipVerify {
		params.InsecureSkipVerify = true
	}

	switch params.Family {
	case models.DeviceFamilyRouterOS, "":
		c := NewRouterOSClient(params)
		c.guard = f.guardFor(params)
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unsupported device family %q", ErrInvalidDeviceParams, params.Family)
	}
}

func (f *DeviceClientFactoryImpl) guardFor(params DeviceParams) *deviceGuard {
	key := params.Address()

	f.mu.Lock()
	defer f.mu.Unlock()

	if g, ok := f.guards[key]; ok {
		return g
	}
	g := newDeviceGuard(key, f.cfg)
	f.guards[key] = g
	return g
}

// deviceGuard throttles and short-circuits calls to one device address
type deviceGuard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func newDeviceGuard(name string, cfg config.DeviceConfig) *deviceGuard {
	failures := cfg.BreakerFailures
	if failures < 1 {
		failures = 5
	}
	perSecond := cfg.RateLimitPerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &deviceGuard{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.BreakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(failures)
			},
			// only connectivity failures count against the device
			IsSuccessful: func(err error) bool {
				return err == nil || !IsDeviceUnavailable(err)
			},
			IsExcluded: func(err error) bool {
				var unavailable *DeviceUnavailableError
				return errors.As(err, &unavailable) && unavailable.CallerGone
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("device breaker %s: %s -> %s", name, from, to)
				recordBreakerState(name, to)
			},
		}),
	}
}

// do runs fn once the limiter admits the call and the breaker is not open.
// A nil guard runs fn directly.
func (g *deviceGuard) do(ctx context.Context, op string, fn func() ([]byte, error)) ([]byte, error) {
	if g == nil {
		return fn()
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &DeviceUnavailableError{Op: op, Err: fmt.Errorf("rate limited: %w", err)}
	}
	body, err := g.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &DeviceUnavailableError{Op: op, Err: err}
	}
	return body, err
}
