// Package server provides the HTTP API for running simulations and reading
// run records.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/limiquantix/mlfq/internal/config"
	"github.com/limiquantix/mlfq/internal/domain"
	"github.com/limiquantix/mlfq/internal/workload"
)

const (
	defaultListLimit   = 20
	healthCheckTimeout = 2 * time.Second
)

// RunService is the simulation service the server exposes.
type RunService interface {
	Run(ctx context.Context, spec workload.Spec) (*domain.Run, error)
	Get(ctx context.Context, id string) (*domain.Run, error)
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}

// HealthChecker reports whether a dependency can serve requests.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server represents the HTTP server.
type Server struct {
	config  config.ServerConfig
	service RunService
	storage HealthChecker
	logger  *zap.Logger
	app     *fiber.App
}

// New creates a new server and registers its routes. storage backs the
// health check and may be nil.
func New(cfg config.ServerConfig, service RunService, storage HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		config:  cfg,
		service: service,
		storage: storage,
		logger:  logger.With(zap.String("component", "server")),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "MLFQ Simulator",
		ServerHeader:          "MLFQ-Simulator",
		DisableStartupMessage: true,
	})

	// Middleware
	s.app.Use(recover.New())
	s.app.Use(s.loggingMiddleware)
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	// Health check
	s.app.Get("/health", s.handleHealth)

	// API routes
	api := s.app.Group("/api/v1")
	api.Get("/runs", s.handleListRuns)
	api.Get("/runs/:id", s.handleGetRun)
	api.Post("/runs", s.handleCreateRun)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Address returns the listen address.
func (s *Server) Address() string {
	return s.config.Address()
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting server", zap.String("address", s.Address()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.Address()); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	if err := s.app.ShutdownWithTimeout(s.config.ShutdownTimeout); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) loggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.logger.Debug("HTTP request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

// handleHealth returns server health status
func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.storage != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		if err := s.storage.Health(ctx); err != nil {
			s.logger.Warn("Storage health check failed", zap.Error(err))
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status":    "unhealthy",
				"storage":   err.Error(),
				"timestamp": time.Now().UTC(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"storage":   "ok",
		"timestamp": time.Now().UTC(),
	})
}

// handleListRuns returns the most recent run records
func (s *Server) handleListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultListLimit)

	runs, err := s.service.List(c.UserContext(), limit)
	if err != nil {
		return s.errorResponse(c, err)
	}

	result := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		result = append(result, toRunResponse(run))
	}
	return c.JSON(result)
}

// handleGetRun returns a single run record
func (s *Server) handleGetRun(c *fiber.Ctx) error {
	run, err := s.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(toRunResponse(run))
}

// handleCreateRun executes a simulation synchronously and returns its record
func (s *Server) handleCreateRun(c *fiber.Ctx) error {
	var req CreateRunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	spec, err := toWorkloadSpec(&req)
	if err != nil {
		return s.errorResponse(c, err)
	}

	run, err := s.service.Run(c.UserContext(), spec)
	if err != nil {
		if run == nil {
			return s.errorResponse(c, err)
		}
		return c.Status(statusFor(err)).JSON(fiber.Map{
			"error": err.Error(),
			"run":   toRunResponse(run),
		})
	}

	return c.Status(http.StatusCreated).JSON(toRunResponse(run))
}

func (s *Server) errorResponse(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
