package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Hotspot-Ledger/utils"
)

// maxRouterOSResponseBytes caps a single REST response
const maxRouterOSResponseBytes = 8 << 20

// RouterOSClient talks to the RouterOS v7 REST API (/rest) of one device
type RouterOSClient struct {
	params     DeviceParams
	baseURL    string
	httpClient *http.Client
	guard      *deviceGuard
}

// NewRouterOSClient creates an unguarded client bound to a copy of params.
// Clients built by the factory share a per-device limiter and breaker.
func NewRouterOSClient(params DeviceParams) *RouterOSClient {
	scheme := "http"
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if params.UseTLS {
		scheme = "https"
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: params.InsecureSkipVerify, //nolint:gosec // RouterOS ships self-signed certificates
			MinVersion:         tls.VersionTLS12,
		}
	}
	if params.Timeout <= 0 {
		params.Timeout = utils.DefaultDeviceTimeout
	}
	transport.ResponseHeaderTimeout = params.Timeout

	return &RouterOSClient{
		params:  params,
		baseURL: fmt.Sprintf("%s://%s/rest", scheme, params.Address()),
		httpClient: &http.Client{
			Timeout:   params.Timeout,
			Transport: transport,
		},
	}
}

// TestConnection probes /system/identity
func (c *RouterOSClient) TestConnection(ctx context.Context) (bool, error) {
	if err := c.params.Validate(); err != nil {
		return false, err
	}
	if _, err := c.call(ctx, "test_connection", http.MethodGet, "/system/identity"); err != nil {
		if IsDeviceError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListActiveSessions returns /ip/hotspot/active; records without a usable MAC
// or byte counters are skipped
func (c *RouterOSClient) ListActiveSessions(ctx context.Context) ([]Session, error) {
	const op = "list_active_sessions"
	records, err := c.list(ctx, op, "/ip/hotspot/active")
	if err != nil {
		return nil, err
	}

	sessions := make([]Session, 0, len(records))
	skipped := 0
	for _, rec := range records {
		s, ok := sessionFromRecord(rec)
		if !ok {
			skipped++
			continue
		}
		sessions = append(sessions, s)
	}
	if skipped > 0 {
		log.Printf("routeros: %s skipped %d malformed session records from %s", op, skipped, c.params.Address())
	}
	return sessions, nil
}

// ListUsers returns /ip/hotspot/user
func (c *RouterOSClient) ListUsers(ctx context.Context) ([]UserRecord, error) {
	records, err := c.list(ctx, "list_users", "/ip/hotspot/user")
	if err != nil {
		return nil, err
	}
	users := make([]UserRecord, 0, len(records))
	for _, rec := range records {
		name, ok := stringField(rec, "name")
		if !ok {
			continue
		}
		id, _ := stringField(rec, ".id")
		profile, _ := stringField(rec, "profile")
		mac, _ := stringField(rec, "mac-address")
		server, _ := stringField(rec, "server")
		comment, _ := stringField(rec, "comment")
		if normalized, err := utils.NormalizeMAC(mac); err == nil {
			mac = normalized
		}
		users = append(users, UserRecord{
			ID:         id,
			Name:       name,
			Profile:    profile,
			MACAddress: mac,
			Server:     server,
			Comment:    comment,
			Disabled:   boolField(rec, "disabled"),
		})
	}
	return users, nil
}

// DisconnectSession removes an entry from /ip/hotspot/active
func (c *RouterOSClient) DisconnectSession(ctx context.Context, sessionID string) error {
	const op = "disconnect_session"
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return &DeviceProtocolError{Op: op, Err: ErrDeviceSessionNotFound}
	}
	_, err := c.call(ctx, op, http.MethodDelete, "/ip/hotspot/active/"+url.PathEscape(sessionID))
	return err
}

// ListAvailableInterfaces returns /interface
func (c *RouterOSClient) ListAvailableInterfaces(ctx context.Context) ([]Interface, error) {
	records, err := c.list(ctx, "list_interfaces", "/interface")
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(records))
	for _, rec := range records {
		name, ok := stringField(rec, "name")
		if !ok {
			continue
		}
		id, _ := stringField(rec, ".id")
		typ, _ := stringField(rec, "type")
		mac, _ := stringField(rec, "mac-address")
		if normalized, err := utils.NormalizeMAC(mac); err == nil {
			mac = normalized
		}
		out = append(out, Interface{
			ID:         id,
			Name:       name,
			Type:       typ,
			MACAddress: mac,
			Running:    boolField(rec, "running"),
			Disabled:   boolField(rec, "disabled"),
		})
	}
	return out, nil
}

func (c *RouterOSClient) list(ctx context.Context, op, path string) ([]map[string]any, error) {
	body, err := c.call(ctx, op, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, &DeviceProtocolError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return records, nil
}

// call runs one request under the device timeout, limiter and breaker
func (c *RouterOSClient) call(parent context.Context, op, method, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, c.params.Timeout)
	defer cancel()

	start := time.Now()
	body, err := c.guard.do(ctx, op, func() ([]byte, error) {
		body, err := c.roundTrip(ctx, op, method, path)
		var unavailable *DeviceUnavailableError
		if errors.As(err, &unavailable) && parent.Err() != nil {
			unavailable.CallerGone = true
		}
		return body, err
	})
	observeDeviceCall(op, start, err)
	return body, err
}

func (c *RouterOSClient) roundTrip(ctx context.Context, op, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, &DeviceProtocolError{Op: op, Err: err}
	}
	req.SetBasicAuth(c.params.Username, c.params.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DeviceUnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRouterOSResponseBytes))
	if err != nil {
		return nil, &DeviceUnavailableError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &DeviceUnavailableError{Op: op, Err: fmt.Errorf("device returned status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
		return nil, &DeviceProtocolError{Op: op, StatusCode: resp.StatusCode, Err: ErrDeviceSessionNotFound}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &DeviceProtocolError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("authentication rejected")}
	case resp.StatusCode >= 400:
		return nil, &DeviceProtocolError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}
	return body, nil
}

func sessionFromRecord(rec map[string]any) (Session, bool) {
	rawMAC, ok := stringField(rec, "mac-address")
	if !ok {
		return Session{}, false
	}
	mac, err := utils.NormalizeMAC(rawMAC)
	if err != nil {
		return Session{}, false
	}
	bytesIn, ok := int64Field(rec, "bytes-in")
	if !ok {
		return Session{}, false
	}
	bytesOut, ok := int64Field(rec, "bytes-out")
	if !ok {
		return Session{}, false
	}
	id, _ := stringField(rec, ".id")
	user, _ := stringField(rec, "user")
	address, _ := stringField(rec, "address")
	uptime, _ := stringField(rec, "uptime")
	server, _ := stringField(rec, "server")
	return Session{
		ID:         id,
		MACAddress: mac,
		Username:   user,
		Address:    address,
		Uptime:     uptime,
		BytesIn:    bytesIn,
		BytesOut:   bytesOut,
		ServerTag:  server,
	}, true
}

func stringField(rec map[string]any, key string) (string, bool) {
	switch v := rec[key].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	}
	return "", false
}

func int64Field(rec map[string]any, key string) (int64, bool) {
	var raw string
	switch v := rec[key].(type) {
	case string:
		raw = strings.TrimSpace(v)
	case json.Number:
		raw = v.String()
	default:
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func boolField(rec map[string]any, key string) bool {
	switch v := rec[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
