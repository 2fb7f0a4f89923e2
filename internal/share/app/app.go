package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/medshare/internal/share/http"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/jwtx"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the share service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	keys     *jwtx.RemoteKeySet
	verifier jwtx.Verifier

	services            Services
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "share-service",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	ctx := context.Background()
	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	app.initKeys(ctx)
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.keys.Start()
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}

	app.logger.Info("share service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Handler exposes the routed handler so it can be served without Run.
func (app *Application) Handler() http.Handler { return app.router }

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down share service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}
	app.keys.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("share service stopped")
	return nil
}

// initKeys fetches the auth service's JWKS. A failed first fetch is not
// fatal: /readyz reports it and the background refresh keeps trying.
func (app *Application) initKeys(ctx context.Context) {
	app.keys = jwtx.NewRemoteKeySet(app.cfg.AuthJWKSURL, app.cfg.JWKSRefreshInterval, app.logger)

	fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.keys.Refresh(fetchCtx); err != nil {
		app.logger.Warn("initial jwks fetch failed", "url", app.cfg.AuthJWKSURL, "error", err)
	}

	app.verifier = jwtx.NewVerifier(app.keys.Keys, app.cfg.AuthIssuer, app.cfg.AuthAudience)
}

func (app *Application) initServices() {
	app.services = NewServices(app.db, app.cfg, clock.System)

	if app.cfg.HousekeepingEnabled {
		app.housekeepingService = service.NewHousekeepingService(
			app.services.Invitations,
			app.services.Sharing,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	} else {
		app.logger.Info("housekeeping disabled, run sharectl sweep from a scheduler")
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.Keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AccessResolver = app.services.Access
	router.InvitationService = app.services.Invitations
	router.SharingService = app.services.Sharing
	router.TransferService = app.services.Transfer
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
