package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8081)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingEnabled  bool          // Run the in-process expiry sweeps (default: true)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 15m)

	DatabaseDriver string // sqlite or postgres (default: sqlite)
	DatabaseFile   string // SQLite database path (default: ./share.db)
	DatabaseURL    string // Postgres connection string, required for the postgres driver
	DBMaxConns     int32  // Postgres pool size (default: 10)
	DBMinConns     int32  // Postgres idle connections kept open (default: 2)

	AuthIssuer          string        // Expected iss claim, skipped when empty
	AuthAudience        []string      // Accepted aud values, comma separated, skipped when empty
	AuthJWKSURL         string        // Required: JWKS endpoint of the auth service
	JWKSRefreshInterval time.Duration // How often the JWKS is re-fetched (default: 5m)

	BulkStatementTimeout time.Duration // Per-statement bound inside bulk transactions (default: 30s)
	InvitationDefaultTTL time.Duration // Invitation lifetime when none is given (default: 7 days)
}

func LoadConfig() Config {
	return Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8081),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingEnabled:  getEnvBoolOrDefault("HOUSEKEEPING_ENABLED", true),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 15*time.Minute),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "share.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     int32(getEnvIntOrDefault("DB_MAX_CONNS", 10)),
		DBMinConns:     int32(getEnvIntOrDefault("DB_MIN_CONNS", 2)),

		AuthIssuer:          os.Getenv("AUTH_ISSUER"),
		AuthAudience:        splitList(os.Getenv("AUTH_AUDIENCE")),
		AuthJWKSURL:         os.Getenv("AUTH_JWKS_URL"),
		JWKSRefreshInterval: getEnvDurationOrDefault("AUTH_JWKS_REFRESH_INTERVAL", 5*time.Minute),

		BulkStatementTimeout: getEnvDurationOrDefault("BULK_STATEMENT_TIMEOUT", 30*time.Second),
		InvitationDefaultTTL: getEnvDurationOrDefault("INVITATION_DEFAULT_TTL", 7*24*time.Hour),
	}
}

// Validate reports every problem with the server configuration at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.ValidateDatabase(); err != nil {
		errs = append(errs, err)
	}
	if c.AuthJWKSURL == "" {
		errs = append(errs, errors.New("AUTH_JWKS_URL is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	return errors.Join(errs...)
}

// ValidateDatabase checks only the storage settings, which is all the admin
// CLI needs.
func (c Config) ValidateDatabase() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return errors.New("DATABASE_FILE is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS %d exceeds DB_MAX_CONNS %d", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
