// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// DeviceProber is the slice of the device registry the health loop needs
type DeviceProber interface {
	ListActive(ctx context.Context) ([]*models.Device, error)
	Probe(ctx context.Context, device *models.Device) (bool, error)
}

// DeviceHealthScheduler probes every active device on an interval and
// publishes reachability. Probes never touch the ledger.
type DeviceHealthScheduler struct {
	registry     DeviceProber
	logger       *log.Logger
	interval     time.Duration
	probeTimeout time.Duration
	concurrency  int
}

func NewDeviceHealthScheduler(registry DeviceProber, logger *log.Logger, interval, probeTimeout time.Duration) *DeviceHealthScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if probeTimeout <= 0 {
		probeTimeout = utils.DefaultDeviceTimeout
	}
	if logger == nil {
		logger = log.New(log.Writer(), "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
	}
	return &DeviceHealthScheduler{
		registry:     registry,
		logger:       logger,
		interval:     interval,
		probeTimeout: probeTimeout,
		concurrency:  4,
	}
}

// Start launches the loop in a background goroutine and returns a stop function
func (s *DeviceHealthScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (s *DeviceHealthScheduler) runOnce(ctx context.Context) {
	devices, err := s.registry.ListActive(ctx)
	if err != nil {
		s.logger.Printf("scheduler: list active devices failed: %v", err)
		return
	}
	if len(devices) == 0 {
		return
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, d := range devices {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(d *models.Device) {
			defer func() {
				<-sem
				wg.Done()
			}()
			s.probe(ctx, d)
		}(d)
	}
	wg.Wait()
}

func (s *DeviceHealthScheduler) probe(parent context.Context, d *models.Device) {
	ctx, cancel := context.WithTimeout(parent, s.probeTimeout)
	defer cancel()

	reachable, err := s.registry.Probe(ctx, d)
	if err != nil {
		s.logger.Printf("scheduler: probe failed for device id=%d: %v", d.ID, err)
	}
	services.RecordDeviceReachability(d.DisplayName, reachable)
	if !reachable {
		s.logger.Printf("scheduler: device id=%d name=%q unreachable", d.ID, d.DisplayName)
	}
}
