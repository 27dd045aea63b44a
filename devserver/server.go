// Package devserver assembles the development notification server: the per-user
// WebSocket endpoint and the REST inventory that pushes created notifications to it.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shourya0523/Pact-sub000/config"
	"github.com/shourya0523/Pact-sub000/handlers"
	"github.com/shourya0523/Pact-sub000/middleware"
	"github.com/shourya0523/Pact-sub000/services"
	"github.com/shourya0523/Pact-sub000/utils"
	"github.com/shourya0523/Pact-sub000/websocket"
)

// Server is a configured development server.
type Server struct {
	cfg       *config.Config
	app       *fiber.App
	hub       *websocket.Hub
	store     services.NotificationStore
	service   *services.NotificationService
	logger    *utils.Logger
	stopHub   context.CancelFunc
	startTime time.Time
}

// New opens the notification store (SQLite when cfg.DevDBPath is set, memory
// otherwise), starts the hub and builds the Fiber application.
func New(cfg *config.Config, logger *utils.Logger) (*Server, error) {
	if logger == nil {
		logger = utils.GetLogger()
	}

	store, err := openStore(cfg.DevDBPath)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	s := &Server{
		cfg:       cfg,
		hub:       hub,
		store:     store,
		service:   services.NewNotificationService(store, hub, logger),
		logger:    logger,
		stopHub:   stopHub,
		startTime: time.Now(),
	}
	s.app = s.buildApp()

	logger.Info("Development server configured", map[string]interface{}{
		"environment": cfg.Environment,
		"store":       storeKind(cfg.DevDBPath),
	})
	return s, nil
}

func openStore(path string) (services.NotificationStore, error) {
	if path == "" {
		return services.NewMemoryStore(), nil
	}
	store, err := services.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open notification store: %w", err)
	}
	return store, nil
}

func storeKind(path string) string {
	if path == "" {
		return "memory"
	}
	return "sqlite"
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Pact Notification Dev Server",
		ErrorHandler:          middleware.ErrorHandler(s.logger),
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		BodyLimit:             1 * 1024 * 1024,
		DisableStartupMessage: !s.cfg.IsDevelopment(),
	})

	app.Use(middleware.PanicRecovery(middleware.ErrorHandlingConfig{
		Logger:         s.logger,
		ShowStackTrace: s.cfg.IsDevelopment(),
	}))
	app.Use(middleware.CorrelationID())
	app.Use(middleware.RequestLogging(middleware.LoggingConfig{
		Logger:    s.logger,
		SkipPaths: []string{"/health"},
	}))
	app.Use(middleware.CORS())

	app.Get("/health", handlers.HealthHandler(s.cfg.Environment, s.startTime, map[string]handlers.HealthCheck{
		"store": func(ctx context.Context) error {
			_, err := s.store.UnreadCount(ctx, "")
			return err
		},
		"realtime_hub": func(context.Context) error {
			select {
			case <-s.hub.Done():
				return websocket.ErrHubStopped
			default:
				return nil
			}
		},
	}))

	websocket.RegisterRoutes(app, s.hub)
	handlers.NewNotificationHandler(s.service, s.logger).RegisterRoutes(app)

	app.Use(middleware.NotFoundHandler())
	return app
}

// App returns the Fiber application, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the realtime hub.
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Service returns the notification service.
func (s *Server) Service() *services.NotificationService {
	return s.service
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown closes realtime connections with 1001, stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopHub()
	select {
	case <-s.hub.Done():
	case <-ctx.Done():
	}

	var errs []error
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("notification store: %w", err))
	}
	return errors.Join(errs...)
}
