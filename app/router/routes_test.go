package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirphl/Hotspot-Ledger/app/middleware"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/config"
)

// stubHandlers answers every route with the handler name
type stubHandlers struct{}

func reply(c fiber.Ctx, name string) error { return c.SendString(name) }

func (stubHandlers) GetBalance(c fiber.Ctx) error { return reply(c, "GetBalance") }
func (stubHandlers) ListTransactions(c fiber.Ctx) error { return reply(c, "ListTransactions") }
func (stubHandlers) AppendTransaction(c fiber.Ctx) error { return reply(c, "AppendTransaction") }
func (stubHandlers) ExportTransactions(c fiber.Ctx) error { return reply(c, "ExportTransactions") }
func (stubHandlers) ListReconciledClients(c fiber.Ctx) error { return reply(c, "ListReconciledClients") }
func (stubHandlers) CreateClient(c fiber.Ctx) error { return reply(c, "CreateClient") }
func (stubHandlers) SetClientRewarded(c fiber.Ctx) error { return reply(c, "SetClientRewarded") }
func (stubHandlers) GetPrice(c fiber.Ctx) error { return reply(c, "GetPrice") }
func (stubHandlers) ListPricing(c fiber.Ctx) error { return reply(c, "ListPricing") }
func (stubHandlers) UpdatePricingTier(c fiber.Ctx) error { return reply(c, "UpdatePricingTier") }
func (stubHandlers) ListDevices(c fiber.Ctx) error { return reply(c, "ListDevices") }
func (stubHandlers) UpsertDevice(c fiber.Ctx) error { return reply(c, "UpsertDevice") }
func (stubHandlers) GetDevice(c fiber.Ctx) error { return reply(c, "GetDevice") }
func (stubHandlers) DeleteDevice(c fiber.Ctx) error { return reply(c, "DeleteDevice") }
func (stubHandlers) TestDevice(c fiber.Ctx) error { return reply(c, "TestDevice") }
func (stubHandlers) ListDeviceUsers(c fiber.Ctx) error { return reply(c, "ListDeviceUsers") }
func (stubHandlers) ListDeviceInterfaces(c fiber.Ctx) error { return reply(c, "ListDeviceInterfaces") }
func (stubHandlers) DisconnectSession(c fiber.Ctx) error { return reply(c, "DisconnectSession") }
func (stubHandlers) ListTraders(c fiber.Ctx) error { return reply(c, "ListTraders") }
func (stubHandlers) CreateTrader(c fiber.Ctx) error { return reply(c, "CreateTrader") }
func (stubHandlers) GetTrader(c fiber.Ctx) error { return reply(c, "GetTrader") }
func (stubHandlers) ActivateTrader(c fiber.Ctx) error { return reply(c, "ActivateTrader") }
func (stubHandlers) DeactivateTrader(c fiber.Ctx) error { return reply(c, "DeactivateTrader") }
func (stubHandlers) Login(c fiber.Ctx) error { return reply(c, "Login") }
func (stubHandlers) Logout(c fiber.Ctx) error { return reply(c, "Logout") }
func (stubHandlers) ListAuditLogs(c fiber.Ctx) error { return reply(c, "ListAuditLogs") }

func newTestRouter(t *testing.T) (*fiber.App, services.TokenService) {
	t.Helper()
	tokens, err := services.NewTokenService(time.Hour, "hotspot-ledger", "hotspot-admin", false, "", "", "test-signing-secret-0123456789")
	require.NoError(t, err)

	stub := stubHandlers{}
	r := NewFiberRouter(&config.ProductionConfig{
		Deployment: config.DeploymentConfig{Version: "1.2.3", CommitHash: "abc123"},
	}, Handlers{
		Ledger:      stub,
		Client:      stub,
		Pricing:     stub,
		DeviceAdmin: stub,
		TraderAdmin: stub,
		AdminAuth:   stub,
		Audit:       stub,
	}, middleware.NewAuthMiddleware(tokens))
	r.SetupRoutes()
	return r.GetApp(), tokens
}

func call(t *testing.T, app *fiber.App, method, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestTraderWritesRequireAdminToken(t *testing.T) {
	app, tokens := newTestRouter(t)
	token, _, err := tokens.GenerateAdminToken("ops")
	require.NoError(t, err)

	writes := []string{
		"/api/v1/traders/+254700000001/transactions",
		"/api/v1/traders/+254700000001/clients",
	}
	for _, path := range writes {
		status, body := call(t, app, http.MethodPost, path, "")
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
		assert.Contains(t, body, "MISSING_AUTHORIZATION_HEADER", path)

		status, _ = call(t, app, http.MethodPost, path, "not-a-jwt")
		assert.Equal(t, fiber.StatusUnauthorized, status, path)

		status, _ = call(t, app, http.MethodPost, path, token)
		assert.Equal(t, fiber.StatusOK, status, path)
	}
}

func TestTraderReadsArePublic(t *testing.T) {
	app, _ := newTestRouter(t)

	for path, handler := range map[string]string{
		"/api/v1/traders/+254700000001/balance":      "GetBalance",
		"/api/v1/traders/+254700000001/transactions": "ListTransactions",
		"/api/v1/traders/+254700000001/clients":      "ListReconciledClients",
		"/api/v1/traders/+254700000001/price":        "GetPrice",
	} {
		status, body := call(t, app, http.MethodGet, path, "")
		assert.Equal(t, fiber.StatusOK, status, path)
		assert.Equal(t, handler, body, path)
	}
}

func TestAdminLoginIsOpenAndLogoutIsNot(t *testing.T) {
	app, tokens := newTestRouter(t)

	status, body := call(t, app, http.MethodPost, "/api/v1/admin/auth/token", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Login", body)

	status, _ = call(t, app, http.MethodPost, "/api/v1/admin/auth/logout", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	token, _, err := tokens.GenerateAdminToken("ops")
	require.NoError(t, err)
	status, body = call(t, app, http.MethodPost, "/api/v1/admin/auth/logout", token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Logout", body)

	status, _ = call(t, app, http.MethodGet, "/api/v1/admin/devices", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestHealthReportsBuildInfo(t *testing.T) {
	app, _ := newTestRouter(t)

	status, body := call(t, app, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"version":"1.2.3"`)
	assert.Contains(t, body, `"commit":"abc123"`)
}
