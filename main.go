package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shourya0523/Pact-sub000/config"
	"github.com/shourya0523/Pact-sub000/inventory"
	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/presenter"
	"github.com/shourya0523/Pact-sub000/realtime"
	"github.com/shourya0523/Pact-sub000/session"
	"github.com/shourya0523/Pact-sub000/utils"
)

const appName = "Pact"

var errMissingUserID = errors.New("USER_ID is required to run the notification client")

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if errs := cfg.Validate(); len(errs) > 0 {
		log.Fatal("Configuration validation failed:", errs)
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger := utils.GetLogger()
	logger.Info("Starting Pact notification client", map[string]interface{}{
		"environment": cfg.Environment,
		"api_base":    cfg.APIBaseURL,
		"user_id":     cfg.UserID,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Notification client stopped with error", err)
		os.Exit(1)
	}
	logger.Info("Notification client exited gracefully")
}

// daemon wires the realtime client, the inventory client and the session controller.
type daemon struct {
	realtime   *realtime.Client
	inventory  *inventory.Client
	controller *session.Controller
	logger     *utils.Logger
}

func newDaemon(cfg *config.Config, logger *utils.Logger, opts ...realtime.Option) (*daemon, error) {
	wsBase, err := cfg.WebSocketBaseURL()
	if err != nil {
		return nil, err
	}

	rtOpts := append([]realtime.Option{
		realtime.WithLogger(logger),
		realtime.WithPresenter(buildPresenter(cfg, logger)),
	}, opts...)
	// WS_MAX_RECONNECT_ATTEMPTS=0 turns reconnection off.
	maxAttempts := cfg.WSMaxReconnectAttempts
	if maxAttempts == 0 {
		maxAttempts = -1
	}
	rt := realtime.New(realtime.Config{
		BaseURL:              wsBase,
		ReconnectBaseDelay:   cfg.WSReconnectBaseDelay,
		MaxReconnectAttempts: maxAttempts,
		HeartbeatInterval:    cfg.WSHeartbeatInterval,
		HandshakeTimeout:     cfg.WSHandshakeTimeout,
		DedupWindow:          cfg.WSDedupWindow,
	}, rtOpts...)

	invCfg := inventory.DefaultConfig(cfg.APIBaseURL)
	invCfg.Timeout = cfg.InventoryTimeout
	if !cfg.EnableCircuitBreaker {
		invCfg.Breaker = nil
	}
	inv := inventory.New(invCfg, inventory.WithLogger(logger))

	d := &daemon{
		realtime:   rt,
		inventory:  inv,
		controller: session.NewController(session.NewMemoryStore(cfg.UserID), rt, inv, logger),
		logger:     logger,
	}
	d.controller.OnNotification(d.logDelivery)
	return d, nil
}

func (d *daemon) logDelivery(n models.Notification) {
	d.logger.WithSource("client").Info("Notification delivered", map[string]interface{}{
		"notification_id": n.ID,
		"type":            string(n.Type),
		"title":           n.Title,
		"time_ago":        n.TimeAgo,
		"unread_count":    d.controller.UnreadCount(),
	})
}

// buildPresenter always logs; desktop popups are added when enabled and supported.
func buildPresenter(cfg *config.Config, logger *utils.Logger) presenter.Presenter {
	logPresenter := presenter.NewLogPresenter(logger)
	if !cfg.EnableDesktopNotifications {
		return logPresenter
	}

	desktop := presenter.NewDesktopPresenter(appName)
	if !desktop.Supported() {
		logger.Warn("Desktop notifications are not supported on this platform")
		return logPresenter
	}
	return presenter.MultiPresenter{logPresenter, desktop}
}

// run signs the configured user in and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, opts ...realtime.Option) error {
	if cfg.UserID == "" {
		return errMissingUserID
	}

	d, err := newDaemon(cfg, logger, opts...)
	if err != nil {
		return err
	}

	shutdown := utils.NewGracefulShutdown(10*time.Second, logger)
	shutdown.RegisterShutdown("inventory_client", func(context.Context) error { return d.inventory.Close() })
	shutdown.RegisterShutdown("session", func(context.Context) error { return d.controller.Close() })

	if err := d.controller.SignIn(ctx, cfg.UserID); err != nil {
		return errors.Join(err, shutdown.Shutdown(context.Background()))
	}
	d.logBacklog(ctx, cfg.UserID)

	<-ctx.Done()
	logger.Info("Shutting down notification client")
	return shutdown.Shutdown(context.Background())
}

// logBacklog reports unread notifications that arrived while the client was offline.
func (d *daemon) logBacklog(ctx context.Context, userID string) {
	items, err := d.inventory.List(inventory.WithUserID(ctx, userID), inventory.ListOptions{UnreadOnly: true, Limit: 20})
	if err != nil {
		d.logger.Warn("Unread backlog not loaded", map[string]interface{}{"error": err.Error()})
		return
	}
	for _, n := range items {
		d.logger.WithSource("client").Info("Unread notification", map[string]interface{}{
			"notification_id": n.ID,
			"title":           n.Title,
			"time_ago":        n.TimeAgo,
		})
	}
}
