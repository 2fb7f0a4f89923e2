package share_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/medshare/internal/share/app"
	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/jwtx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

/*
 * End-to-end helpers: a stand-in auth service publishing a JWKS and minting
 * EdDSA access tokens, and the real share application wired against it.
 */

const (
	testIssuer   = "bartab-auth"
	testAudience = "share-api"
	testKeyID    = "e2e-key-001"
)

var userScopes = []string{"share:read", "share:write"}

type issuer struct {
	priv ed25519.PrivateKey
	url  string
}

// startIssuer serves a one-key JWKS the share service fetches at startup.
func startIssuer(t *testing.T) *issuer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	jwks := jwtx.JWKS{Keys: []jwtx.JWK{jwtx.NewEd25519JWK(testKeyID, pub)}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, jwks)
	}))
	t.Cleanup(srv.Close)

	return &issuer{priv: priv, url: srv.URL + "/.well-known/jwks.json"}
}

func (i *issuer) token(t *testing.T, userID string, scopes ...string) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
		Scopes: scopes,
	})
	tok.Header["kid"] = testKeyID
	s, err := tok.SignedString(i.priv)
	require.NoError(t, err)
	return s
}

// postgresURL starts a throwaway postgres container, skipping without docker.
func postgresURL(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres e2e needs docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "share",
			"POSTGRES_PASSWORD": "share",
			"POSTGRES_DB":       "share",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://share:share@%s:%s/share?sslmode=disable", host, port.Port())
}

type service struct {
	issuer *issuer
	client *sharesdk.SDKClient
	store  store.Store
}

// startService boots the share application for driver and returns a client
// pointed at it plus a store handle for seeding.
func startService(t *testing.T, driver string) *service {
	t.Helper()
	iss := startIssuer(t)

	cfg := app.Config{
		Env:                 "test",
		LogLevel:            "warn",
		LogFormat:           "json",
		Port:                8081,
		ShutdownGracePeriod: 5 * time.Second,
		DatabaseDriver:      driver,
		DBMaxConns:          4,
		DBMinConns:          0,
		AuthIssuer:          testIssuer,
		AuthAudience:        []string{testAudience},
		AuthJWKSURL:         iss.url,
	}
	switch driver {
	case app.DriverPostgres:
		cfg.DatabaseURL = postgresURL(t)
	default:
		cfg.DatabaseFile = filepath.Join(t.TempDir(), "share.db")
	}

	application, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Shutdown() })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	st, err := app.OpenStore(context.Background(), cfg, app.NewLogger(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return &service{issuer: iss, client: sharesdk.NewSDKClient(srv.URL), store: st}
}

// user seeds a user and returns a session bearing a signed token for them.
func (s *service) user(t *testing.T, name string, role domain.Role, scopes ...string) *sharesdk.Session {
	t.Helper()
	now := time.Now().UTC()
	id := "u-" + name
	require.NoError(t, s.store.Users().CreateUser(context.Background(), domain.User{
		ID:        id,
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	if len(scopes) == 0 {
		scopes = userScopes
	}
	return s.client.WithToken(s.issuer.token(t, id, scopes...))
}

func (s *service) patient(t *testing.T, id, ownerID string, self bool) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, s.store.Patients().CreatePatient(context.Background(), domain.Patient{
		ID:           id,
		OwnerUserID:  ownerID,
		IsSelfRecord: self,
		PrivacyLevel: domain.PrivacyDefault,
		FirstName:    "Pat",
		LastName:     id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

// forEachDriver runs fn against sqlite and, when docker is available, postgres.
func forEachDriver(t *testing.T, fn func(t *testing.T, s *service)) {
	for _, driver := range []string{app.DriverSQLite, app.DriverPostgres} {
		t.Run(driver, func(t *testing.T) {
			fn(t, startService(t, driver))
		})
	}
}
