package httpx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/medshare/pkg/httpx"
	"github.com/aussiebroadwan/medshare/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type stubVerifier map[string]jwtx.Claims

func (s stubVerifier) Verify(token string) (jwtx.Claims, error) {
	c, ok := s[token]
	if !ok {
		return jwtx.Claims{}, errors.New("bad token")
	}
	return c, nil
}

func claimsFor(sub string, scopes ...string) jwtx.Claims {
	return jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}, Scopes: scopes}
}

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()

	v := stubVerifier{
		"good":   claimsFor("u-1", "share:read"),
		"nobody": claimsFor(""),
	}

	var seen string
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httpx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := httpx.Chain(echo, httpx.AuthnMiddleware(v))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing header", func(t *testing.T) {
		rec := do("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer"))
	})

	t.Run("unknown token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Bearer nope").Code)
	})

	t.Run("token without subject", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do("Bearer nobody").Code)
	})

	t.Run("valid token sets subject", func(t *testing.T) {
		rec := do("Bearer good")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "u-1", seen)
	})
}

func TestRequireAnyScope(t *testing.T) {
	t.Parallel()

	v := stubVerifier{
		"admin":  claimsFor("u-2", "admin:write"),
		"reader": claimsFor("u-3", "share:read"),
	}
	h := httpx.Chain(okHandler, httpx.AuthnMiddleware(v), httpx.RequireAnyScope("admin:write"))

	for token, want := range map[string]int{"admin": http.StatusOK, "reader": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, token)
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var dst struct {
		Level string `json:"level"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"level":"edit"}`))
	require.NoError(t, httpx.DecodeJSON(req, &dst))
	require.Equal(t, "edit", dst.Level)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	require.Error(t, httpx.DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.NoError(t, httpx.DecodeJSON(req, &dst))
}
