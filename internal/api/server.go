// Package api is the HTTP surface of the mentor service.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/access"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/catalog"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/health"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/journey"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/metrics"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/project"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/requestid"
	"github.com/Ali-xra/ai-startup-mentor-sub000/internal/upgrade"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr  string
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	CORSOrigins string
	TLSCert     string
	TLSKey      string
}

// Deps are the services the handlers call.
type Deps struct {
	Catalog  *catalog.Catalog
	Journey  *journey.Orchestrator
	Projects *project.Store
	Gate     *access.Gate
	Audit    *access.AuditLog
	Upgrades *upgrade.Service
	Checker  *health.Checker
	Metrics  *metrics.Metrics
}

// Server is the API Fiber application.
type Server struct {
	app    *fiber.App
	logger zerolog.Logger
	config ServerConfig
	cancel context.CancelFunc
}

// NewServer creates and configures the API server.
func NewServer(cfg ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:    app,
		logger: logger.With().Str("component", "api_server").Logger(),
		config: cfg,
		cancel: cancel,
	}

	s.setupMiddleware(ctx, cfg, deps.Metrics, logger)
	s.setupRoutes(NewHandlers(deps, logger), deps)
	return s
}

func (s *Server) setupMiddleware(ctx context.Context, cfg ServerConfig, m *metrics.Metrics, logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID: keep a well-formed client ID, otherwise mint one.
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := requestid.FromHeader(c.Get(requestid.Header))
		c.Set(requestid.Header, reqID)
		c.Locals("request_id", reqID)
		c.SetUserContext(requestid.WithRequestID(c.UserContext(), reqID))
		return c.Next()
	})

	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	if cfg.RateLimit.RPS > 0 {
		s.app.Use(NewRateLimitMiddleware(ctx, cfg.RateLimit))
	}

	s.app.Use(NewAuthMiddleware(cfg.Auth, logger))

	// Request metrics and audit log.
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		if m != nil {
			m.RecordRequest(route, strconv.Itoa(status))
			m.ObserveDuration(route, time.Since(start).Seconds())
		}

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Str("ip", c.IP()).
			Str("subject", identity(c).Subject).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Dur("duration", time.Since(start)).
			Msg("api request")
		return err
	})
}

func (s *Server) setupRoutes(h *Handlers, deps Deps) {
	// Probe endpoints (no auth required, handled in auth middleware)
	s.app.Get("/healthz", health.Liveness)
	if deps.Checker != nil {
		s.app.Get("/readyz", deps.Checker.Readiness())
	} else {
		s.app.Get("/readyz", health.Liveness)
	}

	if deps.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	} else {
		s.app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.SendString("# No metrics collector configured\n")
		})
	}

	v1 := s.app.Group("/api/v1")

	v1.Get("/catalog", h.Catalog)

	// Caller's own plan and upgrade requests
	v1.Get("/me", h.Me)
	v1.Get("/me/upgrades", h.MyUpgrades)
	v1.Post("/me/upgrades", h.RequestUpgrade)

	// Projects
	v1.Post("/projects", h.CreateProject)
	v1.Get("/projects", h.ListProjects)
	v1.Get("/projects/:id", h.GetProject)
	v1.Patch("/projects/:id", h.RenameProject)
	v1.Delete("/projects/:id", h.DeleteProject)

	// Journey
	v1.Post("/projects/:id/messages", h.SendMessage)
	v1.Post("/projects/:id/suggestions", h.RequestSuggestion)
	v1.Post("/projects/:id/suggestions/:messageId/accept", h.AcceptSuggestion)
	v1.Post("/projects/:id/suggestions/:messageId/refine", h.RefineSuggestion)
	v1.Put("/projects/:id/answers/:field", h.UpdateAnswer)
	v1.Post("/projects/:id/answers/:field/refine", h.RefineAnswer)
	v1.Post("/projects/:id/summary", h.ProceedFromSummary)
	v1.Post("/projects/:id/generate", h.Generate)
	v1.Post("/projects/:id/jump", h.JumpTo)
	v1.Post("/projects/:id/restart", h.Restart)

	// Sharing and export
	v1.Get("/projects/:id/members", h.ListMembers)
	v1.Post("/projects/:id/members", h.AddMember)
	v1.Delete("/projects/:id/members/:userId", h.RemoveMember)
	v1.Get("/projects/:id/export", h.Export)

	// Administration
	admin := v1.Group("/admin", requireRole(RoleAdmin))
	admin.Get("/subjects/:subject", h.SubjectStatus)
	admin.Post("/subjects/:subject/plan", h.GrantPlan)
	admin.Post("/subjects/:subject/features", h.SetFeature)
	admin.Delete("/subjects/:subject/features", h.RevokeAll)
	admin.Get("/audit", h.ListAudit)
	admin.Get("/upgrades", h.ListUpgrades)
	admin.Post("/upgrades/:id/approve", h.ApproveUpgrade)
	admin.Post("/upgrades/:id/reject", h.RejectUpgrade)
	admin.Post("/upgrades/:id/extend", h.ExtendUpgrade)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	s.logger.Info().Str("addr", addr).Msg("API server starting")

	if s.config.TLSCert != "" && s.config.TLSKey != "" {
		return s.app.ListenTLS(addr, s.config.TLSCert, s.config.TLSKey)
	}
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("API server shutting down")
	s.cancel()
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		title := "Internal Server Error"
		problemType := "internal_error"
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
			title = utils.StatusMessage(code)
			problemType = strings.ReplaceAll(strings.ToLower(title), " ", "_")
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		// Don't leak internal details
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     problemType,
			Title:    title,
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
