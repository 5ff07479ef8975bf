package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	// Device calls partitioned by operation and outcome (ok, unavailable, protocol, error)
	deviceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_requests_total",
			Help: "Total number of hotspot device API calls",
		},
		[]string{"op", "outcome"},
	)

	deviceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "device_request_duration_seconds",
			Help:    "Hotspot device API call latencies in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"op"},
	)

	// 0 closed, 1 half-open, 2 open
	deviceBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "device_breaker_state",
			Help: "Circuit breaker state per device address",
		},
		[]string{"device"},
	)

	deviceReachable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "device_reachable",
			Help: "Whether the last health probe reached the device (1) or not (0)",
		},
		[]string{"device"},
	)
)

func observeDeviceCall(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsDeviceUnavailable(err):
		outcome = "unavailable"
	case IsDeviceProtocol(err):
		outcome = "protocol"
	default:
		outcome = "error"
	}
	deviceRequestsTotal.WithLabelValues(op, outcome).Inc()
	deviceRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func recordBreakerState(device string, state gobreaker.State) {
	var v float64
	switch state {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	deviceBreakerState.WithLabelValues(device).Set(v)
}

// RecordDeviceReachability publishes the result of a health probe
func RecordDeviceReachability(device string, reachable bool) {
	v := 0.0
	if reachable {
		v = 1
	}
	deviceReachable.WithLabelValues(device).Set(v)
}
