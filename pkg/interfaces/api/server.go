// Package api exposes dashboard sessions over HTTP.
package api

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/stockcast/pkg/application/services/dashboard"
	csvloader "github.com/vsinha/stockcast/pkg/infrastructure/repositories/csv"
)

const shutdownTimeout = 5 * time.Second

// Server owns the fiber app and the session registry behind it
type Server struct {
	app      *fiber.App
	registry *dashboard.Registry
	handler  *Handler
	logger   *log.Logger
}

// NewServer builds the app and registers all routes
func NewServer(registry *dashboard.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	app := fiber.New(fiber.Config{
		AppName:               "stockcast",
		BodyLimit:             64 << 20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	handler := &Handler{
		registry: registry,
		loader:   csvloader.NewLoader(),
		logger:   logger,
	}
	SetupRoutes(app, handler)

	return &Server{app: app, registry: registry, handler: handler, logger: logger}
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves addr until ctx is done, then shuts down gracefully and
// closes all sessions.
func (s *Server) Listen(ctx context.Context, addr string) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.logger.Printf("[INFO] serving http://%s", addr)
		return s.app.Listen(addr)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.logger.Printf("[INFO] shutting down")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	})
	group.Go(func() error {
		return s.registry.Run(groupCtx, time.Minute)
	})

	err := group.Wait()
	s.registry.CloseAll()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SetupRoutes defines all the routes for the application
func SetupRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api/v1")

	api.Get("/health", h.HandleHealth)

	sessions := api.Group("/sessions")
	sessions.Post("/", h.HandleCreateSession)
	sessions.Delete("/:id", h.HandleDeleteSession)

	sessions.Post("/:id/stock", h.HandleUploadStock)
	sessions.Post("/:id/sales", h.HandleUploadSales)

	sessions.Get("/:id/inventory", h.HandleGetInventory)
	sessions.Get("/:id/selection", h.HandleGetSelection)
	sessions.Put("/:id/selection", h.HandleSetSelection)

	sessions.Get("/:id/items/:code/sales", h.HandleGetSalesSeries)
	sessions.Get("/:id/forecast", h.HandleGetForecast)
	sessions.Get("/:id/skips", h.HandleGetSkips)
}
