// Package router provides HTTP routing, middleware configuration, and server setup for the ledger API
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/app/handlers"
	"github.com/amirphl/Hotspot-Ledger/app/middleware"
	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown() error
	GetApp() *fiber.App
}

// Handlers groups every handler the router mounts
type Handlers struct {
	Ledger      handlers.LedgerHandlerInterface
	Client      handlers.ClientHandlerInterface
	Pricing     handlers.PricingHandlerInterface
	DeviceAdmin handlers.DeviceAdminHandlerInterface
	TraderAdmin handlers.TraderAdminHandlerInterface
	AdminAuth   handlers.AdminHandlerInterface
	Audit       handlers.AuditHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	handlers Handlers
	auth     *middleware.AuthMiddleware
	server   config.ServerConfig
	security config.SecurityConfig
	metrics  config.MetricsConfig
	logging  config.LoggingConfig
	deploy   config.DeploymentConfig
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, auth *middleware.AuthMiddleware) Router {
	bodyLimit := cfg.Server.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = 4 * 1024 * 1024
	}

	app := fiber.New(fiber.Config{
		AppName:          "Hotspot Ledger API",
		ServerHeader:     "Hotspot-Ledger",
		ErrorHandler:     errorHandler,
		BodyLimit:        bodyLimit,
		ReadTimeout:      orDefault(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout:     orDefault(cfg.Server.WriteTimeout, 30*time.Second),
		IdleTimeout:      orDefault(cfg.Server.IdleTimeout, 60*time.Second),
		JSONEncoder:      json.Marshal,
		JSONDecoder:      json.Unmarshal,
		TrustProxy:       len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{Proxies: cfg.Server.TrustedProxies},
		ProxyHeader:      cfg.Server.ProxyHeader,
	})

	return &FiberRouter{
		app:      app,
		handlers: h,
		auth:     auth,
		server:   cfg.Server,
		security: cfg.Security,
		metrics:  cfg.Metrics,
		logging:  cfg.Logging,
		deploy:   cfg.Deployment,
	}
}

const jsonAccessLogFormat = `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n"

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	api := r.app.Group("/api/v1")

	api.Get("/health", r.healthCheck)
	if r.metrics.Enabled {
		path := r.metrics.Path
		if path == "" {
			path = "/metrics"
		}
		api.Get(path, middleware.MetricsHandler())
	}

	api.Use(limiter.New(limiter.Config{
		Max:          orDefaultInt(r.security.GlobalRateLimit, 2000),
		Expiration:   orDefault(r.security.RateLimitWindow, time.Minute),
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimited,
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	authed := r.auth.AdminAuthenticate()

	// reads are public; anything that writes to a trader needs an admin token
	traders := api.Group("/traders/:phone")
	traders.Get("/balance", r.handlers.Ledger.GetBalance)
	traders.Get("/transactions", r.handlers.Ledger.ListTransactions)
	traders.Get("/transactions/export", r.handlers.Ledger.ExportTransactions)
	traders.Post("/transactions", authed, r.handlers.Ledger.AppendTransaction)
	traders.Get("/clients", r.handlers.Client.ListReconciledClients)
	traders.Post("/clients", authed, r.handlers.Client.CreateClient)
	traders.Get("/price", r.handlers.Pricing.GetPrice)
	traders.Get("/pricing", r.handlers.Pricing.ListPricing)

	admin := api.Group("/admin")

	adminAuth := admin.Group("/auth")
	adminAuth.Use(limiter.New(limiter.Config{
		Max:          orDefaultInt(r.security.AuthRateLimit, 20),
		Expiration:   orDefault(r.security.RateLimitWindow, time.Minute),
		KeyGenerator: func(c fiber.Ctx) string { return c.IP() },
		LimitReached: rateLimited,
	}))
	adminAuth.Post("/token", r.handlers.AdminAuth.Login)
	adminAuth.Post("/logout", authed, r.handlers.AdminAuth.Logout)

	adminTraders := admin.Group("/traders", authed)
	adminTraders.Get("", r.handlers.TraderAdmin.ListTraders)
	adminTraders.Post("", r.handlers.TraderAdmin.CreateTrader)
	adminTraders.Get("/:phone", r.handlers.TraderAdmin.GetTrader)
	adminTraders.Post("/:phone/activate", r.handlers.TraderAdmin.ActivateTrader)
	adminTraders.Post("/:phone/deactivate", r.handlers.TraderAdmin.DeactivateTrader)
	adminTraders.Put("/:phone/pricing/:category", r.handlers.Pricing.UpdatePricingTier)
	adminTraders.Put("/:phone/clients/:id/rewarded", r.handlers.Client.SetClientRewarded)

	devices := admin.Group("/devices", authed)
	devices.Get("", r.handlers.DeviceAdmin.ListDevices)
	devices.Post("", r.handlers.DeviceAdmin.UpsertDevice)
	devices.Get("/:id", r.handlers.DeviceAdmin.GetDevice)
	devices.Delete("/:id", r.handlers.DeviceAdmin.DeleteDevice)
	devices.Post("/:id/test", r.handlers.DeviceAdmin.TestDevice)
	devices.Get("/:id/users", r.handlers.DeviceAdmin.ListDeviceUsers)
	devices.Get("/:id/interfaces", r.handlers.DeviceAdmin.ListDeviceInterfaces)
	devices.Delete("/:id/sessions/:session_id", r.handlers.DeviceAdmin.DisconnectSession)

	admin.Get("/audit-logs", authed, r.handlers.Audit.ListAuditLogs)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes setup completed")
}

func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    orDefaultString(r.security.XContentTypeOptions, "nosniff"),
		XFrameOptions:         orDefaultString(r.security.XFrameOptions, "DENY"),
		HSTSMaxAge:            orDefaultInt(r.security.HSTSMaxAge, 31536000),
		HSTSExcludeSubdomains: !r.security.HSTSIncludeSubDoms,
		HSTSPreloadEnabled:    r.security.HSTSPreload,
		ContentSecurityPolicy: orDefaultString(r.security.CSPPolicy, "default-src 'none'; frame-ancestors 'none';"),
		ReferrerPolicy:        orDefaultString(r.security.ReferrerPolicy, "strict-origin-when-cross-origin"),
	}))

	origins := r.security.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     orDefaultSlice(r.security.AllowedMethods, []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"}),
		AllowHeaders:     orDefaultSlice(r.security.AllowedHeaders, []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "Idempotency-Key"}),
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.security.AllowCredentials && !containsWildcard(origins),
		MaxAge:           orDefaultInt(r.security.CORSMaxAge, utils.CORSMaxAge),
	}))

	if r.server.EnableCompression {
		level := compress.LevelBestSpeed
		if l := compress.Level(r.server.CompressionLevel); l >= compress.LevelDisabled && l <= compress.LevelBestCompression {
			level = l
		}
		r.app.Use(compress.New(compress.Config{Level: level}))
	}

	if r.logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     orDefaultString(r.logging.AccessLogFormat, jsonAccessLogFormat),
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/api/v1/health"
			},
		}))
	}

	r.app.Use(middleware.Metrics())

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

func (r *FiberRouter) Shutdown() error {
	return r.app.ShutdownWithTimeout(orDefault(r.server.ShutdownTimeout, 30*time.Second))
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	version := orDefaultString(r.deploy.Version, "dev")
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   version,
			"commit":    r.deploy.CommitHash,
			"built_at":  r.deploy.BuildTime,
			"service":   "hotspot-ledger-api",
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

func rateLimited(c fiber.Ctx) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
		Success: false,
		Message: "Too many requests. Please try again later.",
		Error: dto.ErrorDetail{
			Code: "RATE_LIMIT_EXCEEDED",
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errorCode := "INTERNAL_ERROR"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			message = e.Message
			errorCode = "REQUEST_ERROR"
		}
	}

	log.Printf("Error %d: %v", code, err)

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": c.Locals("requestid"),
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return utils.UTCNow().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(b)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.Contains(o, "*") {
			return true
		}
	}
	return false
}

func orDefault(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultSlice(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func orDefaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
