package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/internal/share/store/drivers/postgres"
	"github.com/aussiebroadwan/medshare/internal/share/store/drivers/sqlite"
	"github.com/aussiebroadwan/medshare/pkg/clock"
)

// OpenStore connects to the configured driver and applies migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}

	var (
		st  store.Store
		err error
	)
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		st, err = postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	default:
		st, err = sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database: %w", cfg.DatabaseDriver, err)
	}

	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", slog.String("driver", cfg.DatabaseDriver))
	return st, nil
}

// Services is the set of share services over one store.
type Services struct {
	Access      *service.AccessResolver
	Invitations *service.InvitationService
	Sharing     *service.SharingService
	Transfer    *service.TransferService
}

func NewServices(st store.Store, cfg Config, clk clock.Clock) Services {
	inv := &service.InvitationService{
		Store:      st,
		Clock:      clk,
		DefaultTTL: cfg.InvitationDefaultTTL,
	}
	return Services{
		Access:      &service.AccessResolver{Store: st, Clock: clk},
		Invitations: inv,
		Sharing: &service.SharingService{
			Store:                st,
			Clock:                clk,
			Invitations:          inv,
			BulkStatementTimeout: cfg.BulkStatementTimeout,
		},
		Transfer: &service.TransferService{Store: st, Clock: clk},
	}
}
