package services

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/models"
)

func paramsFor(t *testing.T, srv *httptest.Server) DeviceParams {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return DeviceParams{
		DeviceID: 1,
		Name:     "edge",
		Family:   models.DeviceFamilyRouterOS,
		Host:     host,
		Port:     port,
		Username: "api",
		Password: "secret",
		Timeout:  2 * time.Second,
	}
}

func TestRouterOSClient_ListActiveSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/rest/ip/hotspot/active", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{".id":"*1","mac-address":"AA-BB-CC-DD-EE-01","user":"u1","address":"10.0.0.2","uptime":"5m","bytes-in":"1024","bytes-out":"2048","server":"0712345678"},
			{".id":"*2","mac-address":"not-a-mac","bytes-in":"1","bytes-out":"1","server":"0712345678"},
			{".id":"*3","mac-address":"aa:bb:cc:dd:ee:03","bytes-in":"lots","bytes-out":"1","server":"0712345678"},
			{".id":"*4","mac-address":"aa:bb:cc:dd:ee:04","bytes-in":7,"bytes-out":9,"server":"other"}
		]`))
	}))
	defer srv.Close()

	client := NewRouterOSClient(paramsFor(t, srv))
	sessions, err := client.ListActiveSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, Session{
		ID:         "*1",
		MACAddress: "aa:bb:cc:dd:ee:01",
		Username:   "u1",
		Address:    "10.0.0.2",
		Uptime:     "5m",
		BytesIn:    1024,
		BytesOut:   2048,
		ServerTag:  "0712345678",
	}, sessions[0])
	assert.Equal(t, int64(7), sessions[1].BytesIn)
	assert.Equal(t, "other", sessions[1].ServerTag)
}

func TestRouterOSClient_ErrorClasses(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		wantUnavailable bool
		wantProtocol    bool
	}{
		{name: "server error", status: http.StatusBadGateway, wantUnavailable: true},
		{name: "auth rejected", status: http.StatusUnauthorized, wantProtocol: true},
		{name: "bad request", status: http.StatusBadRequest, wantProtocol: true},
		{name: "undecodable body", status: http.StatusOK, body: "<html>", wantProtocol: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewRouterOSClient(paramsFor(t, srv)).ListUsers(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantUnavailable, IsDeviceUnavailable(err))
			assert.Equal(t, tt.wantProtocol, IsDeviceProtocol(err))
			assert.True(t, IsDeviceError(err))
		})
	}
}

func TestRouterOSClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	params := paramsFor(t, srv)
	params.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := NewRouterOSClient(params).ListActiveSessions(context.Background())
	require.Error(t, err)
	assert.True(t, IsDeviceUnavailable(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestRouterOSClient_TestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"edge"}`))
	}))
	params := paramsFor(t, srv)

	ok, err := NewRouterOSClient(params).TestConnection(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	srv.Close()
	ok, err = NewRouterOSClient(params).TestConnection(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	bad := params
	bad.Host = ""
	_, err = NewRouterOSClient(bad).TestConnection(context.Background())
	assert.ErrorIs(t, err, ErrInvalidDeviceParams)
}

func TestRouterOSClient_DisconnectSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path == "/rest/ip/hotspot/active/*1" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewRouterOSClient(paramsFor(t, srv))
	require.NoError(t, client.DisconnectSession(context.Background(), "*1"))

	err := client.DisconnectSession(context.Background(), "*9")
	assert.ErrorIs(t, err, ErrDeviceSessionNotFound)
	assert.True(t, IsDeviceProtocol(err))
}

func TestRouterOSClient_ListAvailableInterfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/interface", r.URL.Path)
		_, _ = w.Write([]byte(`[{".id":"*1","name":"ether1","type":"ether","mac-address":"AA:BB:CC:00:00:01","running":"true","disabled":"false"},{".id":"*2"}]`))
	}))
	defer srv.Close()

	ifaces, err := NewRouterOSClient(paramsFor(t, srv)).ListAvailableInterfaces(context.Background())
	require.NoError(t, err)
	require.Len(t, ifaces, 1)
	assert.Equal(t, "ether1", ifaces[0].Name)
	assert.Equal(t, "aa:bb:cc:00:00:01", ifaces[0].MACAddress)
	assert.True(t, ifaces[0].Running)
	assert.False(t, ifaces[0].Disabled)
}

func TestDeviceClientFactory_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	factory := NewDeviceClientFactory(config.DeviceConfig{
		Timeout:            2 * time.Second,
		RateLimitPerSecond: 1000,
		RateBurst:          100,
		BreakerFailures:    2,
		BreakerOpenTimeout: time.Minute,
	})
	params := paramsFor(t, srv)

	for i := 0; i < 2; i++ {
		client, err := factory.New(params)
		require.NoError(t, err)
		_, err = client.ListActiveSessions(context.Background())
		assert.True(t, IsDeviceUnavailable(err))
	}

	client, err := factory.New(params)
	require.NoError(t, err)
	_, err = client.ListActiveSessions(context.Background())
	assert.True(t, IsDeviceUnavailable(err))
	assert.Equal(t, int32(2), hits.Load())
}

func TestDeviceClientFactory_ProtocolErrorsKeepBreakerClosed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	factory := NewDeviceClientFactory(config.DeviceConfig{
		RateLimitPerSecond: 1000,
		RateBurst:          100,
		BreakerFailures:    1,
	})
	params := paramsFor(t, srv)

	for i := 0; i < 3; i++ {
		client, err := factory.New(params)
		require.NoError(t, err)
		_, err = client.ListUsers(context.Background())
		assert.True(t, IsDeviceProtocol(err))
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestDeviceClientFactory_AbandonedCallsKeepBreakerClosed(t *testing.T) {
	var slow atomic.Bool
	slow.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	factory := NewDeviceClientFactory(config.DeviceConfig{
		RateLimitPerSecond: 1000,
		RateBurst:          100,
		BreakerFailures:    1,
		BreakerOpenTimeout: time.Minute,
	})
	params := paramsFor(t, srv)

	for i := 0; i < 3; i++ {
		client, err := factory.New(params)
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err = client.ListActiveSessions(ctx)
		cancel()
		require.Error(t, err)
		assert.True(t, IsDeviceUnavailable(err))
	}

	slow.Store(false)
	client, err := factory.New(params)
	require.NoError(t, err)
	sessions, err := client.ListActiveSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDeviceClientFactory_RejectsInvalidParams(t *testing.T) {
	factory := NewDeviceClientFactory(config.DeviceConfig{})

	_, err := factory.New(DeviceParams{Host: "10.0.0.1", Port: 0, Username: "api"})
	assert.ErrorIs(t, err, ErrInvalidDeviceParams)

	_, err = factory.New(DeviceParams{Host: "10.0.0.1", Port: 80, Username: "api", Family: "unifi"})
	assert.ErrorIs(t, err, ErrInvalidDeviceParams)
}
