package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Hotspot-Ledger/models"
)

type fakeProber struct {
	mu        sync.Mutex
	devices   []*models.Device
	listErr   error
	reachable map[uint]bool
	probed    []uint
}

func (f *fakeProber) ListActive(ctx context.Context) ([]*models.Device, error) {
	return f.devices, f.listErr
}

func (f *fakeProber) Probe(ctx context.Context, d *models.Device) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, d.ID)
	if _, ok := ctx.Deadline(); !ok {
		return false, errors.New("probe without deadline")
	}
	return f.reachable[d.ID], nil
}

func (f *fakeProber) probedIDs() []uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint(nil), f.probed...)
}

func TestRunOnceProbesEveryActiveDevice(t *testing.T) {
	prober := &fakeProber{
		devices: []*models.Device{
			{ID: 1, DisplayName: "kiosk-a"},
			{ID: 2, DisplayName: "kiosk-b"},
			{ID: 3, DisplayName: "kiosk-c"},
		},
		reachable: map[uint]bool{1: true, 3: true},
	}
	var buf bytes.Buffer
	s := NewDeviceHealthScheduler(prober, log.New(&buf, "", 0), time.Hour, time.Second)

	s.runOnce(context.Background())

	assert.ElementsMatch(t, []uint{1, 2, 3}, prober.probedIDs())
	assert.Contains(t, buf.String(), `device id=2 name="kiosk-b" unreachable`)
	assert.NotContains(t, buf.String(), "kiosk-a")
}

func TestRunOnceListFailure(t *testing.T) {
	prober := &fakeProber{listErr: errors.New("db down")}
	var buf bytes.Buffer
	s := NewDeviceHealthScheduler(prober, log.New(&buf, "", 0), time.Hour, time.Second)

	s.runOnce(context.Background())

	assert.Empty(t, prober.probedIDs())
	assert.Contains(t, buf.String(), "list active devices failed")
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	prober := &fakeProber{
		devices:   []*models.Device{{ID: 7, DisplayName: "gate"}},
		reachable: map[uint]bool{7: true},
	}
	s := NewDeviceHealthScheduler(prober, log.New(&bytes.Buffer{}, "", 0), time.Hour, time.Second)

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return len(prober.probedIDs()) == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, []uint{7}, prober.probedIDs())
}
