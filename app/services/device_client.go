// Package services provides external service integrations and technical concerns like device access, notifications and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Hotspot-Ledger/models"
)

// ErrInvalidDeviceParams marks a device configuration that can never work,
// as opposed to a device that is merely unreachable right now
var ErrInvalidDeviceParams = errors.New("invalid device parameters")

// ErrDeviceSessionNotFound is returned by DisconnectSession for an unknown session id
var ErrDeviceSessionNotFound = errors.New("device session not found")

// DeviceParams is a value copy of everything needed to reach one device.
// Clients keep their own copy so registry updates never affect an in-flight call.
type DeviceParams struct {
	DeviceID           uint
	Name               string
	Family             models.DeviceFamily
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Validate rejects parameters that cannot describe a reachable endpoint
func (p DeviceParams) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidDeviceParams)
	}
	if strings.ContainsAny(p.Host, "/ ") {
		return fmt.Errorf("%w: host must not contain a scheme or path", ErrInvalidDeviceParams)
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535", ErrInvalidDeviceParams)
	}
	if p.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidDeviceParams)
	}
	return nil
}

// Address returns host:port
func (p DeviceParams) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Session is one live hotspot session as reported by a device. It is never persisted.
type Session struct {
	ID         string `json:"id"`
	MACAddress string `json:"mac_address"`
	Username   string `json:"username"`
	Address    string `json:"address"`
	Uptime     string `json:"uptime"`
	BytesIn    int64  `json:"bytes_in"`
	BytesOut   int64  `json:"bytes_out"`
	ServerTag  string `json:"server_tag"`
}

// UserRecord is a hotspot user account configured on a device
type UserRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Profile    string `json:"profile,omitempty"`
	MACAddress string `json:"mac_address,omitempty"`
	Server     string `json:"server,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Disabled   bool   `json:"disabled"`
}

// Interface is a network interface available on a device
type Interface struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	MACAddress string `json:"mac_address,omitempty"`
	Running    bool   `json:"running"`
	Disabled   bool   `json:"disabled"`
}

// DeviceClient is the capability set of one hotspot controller family.
// Every call is bounded by the client's timeout and fails with either
// *DeviceUnavailableError or *DeviceProtocolError.
type DeviceClient interface {
	// TestConnection returns false for an unreachable device and an error only for malformed configuration
	TestConnection(ctx context.Context) (bool, error)
	ListActiveSessions(ctx context.Context) ([]Session, error)
	ListUsers(ctx context.Context) ([]UserRecord, error)
	DisconnectSession(ctx context.Context, sessionID string) error
	ListAvailableInterfaces(ctx context.Context) ([]Interface, error)
}

// DeviceClientFactory builds a fresh DeviceClient from a Device's parameters
type DeviceClientFactory interface {
	New(params DeviceParams) (DeviceClient, error)
}

// DeviceUnavailableError covers timeouts, transport failures and device-side 5xx
type DeviceUnavailableError struct {
	Op  string
	Err error

	// CallerGone is set when the caller's context ended before the device answered
	CallerGone bool
}

func (e *DeviceUnavailableError) Error() string {
	return fmt.Sprintf("device unavailable during %s: %v", e.Op, e.Err)
}

func (e *DeviceUnavailableError) Unwrap() error {
	return e.Err
}

// DeviceProtocolError covers a reachable device whose answer is unusable:
// rejected credentials, unexpected status or an undecodable body
type DeviceProtocolError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *DeviceProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("device protocol error during %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("device protocol error during %s: %v", e.Op, e.Err)
}

func (e *DeviceProtocolError) Unwrap() error {
	return e.Err
}

func IsDeviceUnavailable(err error) bool {
	var target *DeviceUnavailableError
	return errors.As(err, &target)
}

func IsDeviceProtocol(err error) bool {
	var target *DeviceProtocolError
	return errors.As(err, &target)
}

// IsDeviceError reports whether err means "device not usable right now"
func IsDeviceError(err error) bool {
	return IsDeviceUnavailable(err) || IsDeviceProtocol(err)
}
