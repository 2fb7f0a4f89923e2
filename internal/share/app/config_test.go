package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DATABASE_DRIVER", "DATABASE_FILE", "HOUSEKEEPING_INTERVAL",
		"HOUSEKEEPING_ENABLED", "AUTH_AUDIENCE", "INVITATION_DEFAULT_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	require.Equal(t, 8081, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, "share.db", cfg.DatabaseFile)
	require.True(t, cfg.HousekeepingEnabled)
	require.Equal(t, 15*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, 7*24*time.Hour, cfg.InvitationDefaultTTL)
	require.Empty(t, cfg.AuthAudience)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "POSTGRES")
	t.Setenv("DATABASE_URL", "postgres://share@localhost/share")
	t.Setenv("HOUSEKEEPING_INTERVAL", "5")
	t.Setenv("HOUSEKEEPING_ENABLED", "false")
	t.Setenv("AUTH_AUDIENCE", "share-api, web ,")
	t.Setenv("BULK_STATEMENT_TIMEOUT", "45s")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := LoadConfig()
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	require.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
	require.False(t, cfg.HousekeepingEnabled)
	require.Equal(t, []string{"share-api", "web"}, cfg.AuthAudience)
	require.Equal(t, 45*time.Second, cfg.BulkStatementTimeout)
	require.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Port:           8081,
		DatabaseDriver: DriverSQLite,
		DatabaseFile:   "share.db",
		AuthJWKSURL:    "http://auth/.well-known/jwks.json",
	}
	require.NoError(t, valid.Validate())

	cfg := valid
	cfg.AuthJWKSURL = ""
	cfg.Port = 0
	err := cfg.Validate()
	require.ErrorContains(t, err, "AUTH_JWKS_URL")
	require.ErrorContains(t, err, "PORT")

	cfg = valid
	cfg.DatabaseDriver = DriverPostgres
	require.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.DatabaseURL = "postgres://localhost/share"
	cfg.DBMaxConns, cfg.DBMinConns = 2, 5
	require.ErrorContains(t, cfg.ValidateDatabase(), "DB_MIN_CONNS")

	cfg.DatabaseDriver = "mysql"
	require.ErrorContains(t, cfg.ValidateDatabase(), "unknown DATABASE_DRIVER")
}
