package http_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	sharehttp "github.com/aussiebroadwan/medshare/internal/share/http"
	"github.com/aussiebroadwan/medshare/internal/share/service"
	"github.com/aussiebroadwan/medshare/internal/share/store/drivers/sqlite"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/jwtx"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stubVerifier accepts a token equal to a user id and grants the scopes
// registered for it.
type stubVerifier map[string][]string

func (s stubVerifier) Verify(token string) (jwtx.Claims, error) {
	scopes, ok := s[token]
	if !ok {
		return jwtx.Claims{}, errors.New("bad token")
	}
	return jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: token}, Scopes: scopes}, nil
}

type env struct {
	store  *sqlite.Store
	clock  *clock.Fake
	client *sharesdk.SDKClient
	tokens stubVerifier
}

func newEnv(t *testing.T, withKeys bool) *env {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "share.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys := jwtx.NewKeySet()
	if withKeys {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		require.NoError(t, keys.AddJWK(jwtx.NewEd25519JWK("k1", pub)))
	}

	clk := clock.NewFake(t0)
	tokens := stubVerifier{}
	inv := &service.InvitationService{Store: st, Clock: clk}

	r := sharehttp.NewRouter(keys, tokens, "test", st, slogx.Discard())
	r.AccessResolver = &service.AccessResolver{Store: st, Clock: clk}
	r.InvitationService = inv
	r.SharingService = &service.SharingService{Store: st, Clock: clk, Invitations: inv}
	r.TransferService = &service.TransferService{Store: st, Clock: clk}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &env{store: st, clock: clk, client: sharesdk.NewSDKClient(srv.URL), tokens: tokens}
}

// user creates a user and returns a session whose token carries scopes.
func (e *env) user(t *testing.T, name string, role domain.Role, scopes ...string) *sharesdk.Session {
	t.Helper()
	id := "u-" + name
	require.NoError(t, e.store.Users().CreateUser(context.Background(), domain.User{
		ID:        id,
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: t0,
		UpdatedAt: t0,
	}))
	if len(scopes) == 0 {
		scopes = []string{sharehttp.ScopeShareRead, sharehttp.ScopeShareWrite}
	}
	e.tokens[id] = scopes
	return e.client.WithToken(id)
}

func (e *env) patient(t *testing.T, id, ownerID string, self bool) {
	t.Helper()
	bd := time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.store.Patients().CreatePatient(context.Background(), domain.Patient{
		ID:           id,
		OwnerUserID:  ownerID,
		IsSelfRecord: self,
		PrivacyLevel: domain.PrivacyDefault,
		FirstName:    "Pat",
		LastName:     id,
		BirthDate:    &bd,
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}))
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *sharesdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t, true)
	live, err := e.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := e.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Keys)

	// No verification keys yet
	e = newEnv(t, false)
	_, err = e.client.GetReadiness(ctx)
	requireAPIError(t, err, http.StatusServiceUnavailable, sharesdk.ErrorCodeUnexpectedHTTPStatus)
}

func TestRoutesRequireBearerToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, true)

	_, err := e.client.WithToken("").SharedWithMe(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, sharesdk.ErrorCodeInvalidToken)

	_, err = e.client.WithToken("forged").SharedWithMe(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, sharesdk.ErrorCodeInvalidToken)

	readOnly := e.user(t, "reader", domain.RoleUser, sharehttp.ScopeShareRead)
	_, err = readOnly.SharedWithMe(ctx)
	require.NoError(t, err)
	_, err = readOnly.SendShareInvitation(ctx, "p-1", sharesdk.SendShareRequest{Recipient: "x", PermissionLevel: "view"})
	requireAPIError(t, err, http.StatusForbidden, sharesdk.ErrorCodeInsufficientScope)
}

func TestShareInvitationRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, true)

	owner := e.user(t, "owner", domain.RoleUser)
	viewer := e.user(t, "viewer", domain.RoleUser)
	e.patient(t, "p-1", "u-owner", true)

	inv, err := owner.SendShareInvitation(ctx, "p-1", sharesdk.SendShareRequest{
		Recipient:       "viewer@example.com",
		PermissionLevel: "edit",
		Message:         "for the appointment",
	})
	require.NoError(t, err)
	require.Equal(t, "pending", inv.Status)
	require.Equal(t, "patient_share", inv.Type)
	require.Contains(t, string(inv.Context), `"patient_id":"p-1"`)

	_, err = owner.SendShareInvitation(ctx, "p-1", sharesdk.SendShareRequest{Recipient: "viewer", PermissionLevel: "edit"})
	requireAPIError(t, err, http.StatusConflict, sharesdk.ErrorCodePendingInvitation)

	pending, err := viewer.PendingInvitations(ctx, "")
	require.NoError(t, err)
	require.Len(t, pending.Invitations, 1)

	res, err := viewer.AcceptInvitation(ctx, inv.ID, "thanks")
	require.NoError(t, err)
	require.False(t, res.Bulk)
	require.Equal(t, "accepted", res.Invitation.Status)
	require.Len(t, res.Shares, 1)
	require.Equal(t, "edit", res.Shares[0].PermissionLevel)

	// A second accept replays the outcome
	again, err := viewer.AcceptInvitation(ctx, inv.ID, "")
	require.NoError(t, err)
	require.Equal(t, res.Shares[0].ID, again.Shares[0].ID)

	access, err := viewer.PatientAccess(ctx, "p-1")
	require.NoError(t, err)
	require.Equal(t, "individual_share", access.AccessType)
	require.Equal(t, "edit", access.PermissionLevel)

	accessible, err := viewer.AccessiblePatients(ctx, "full")
	require.NoError(t, err)
	require.Empty(t, accessible.Patients)
	accessible, err = viewer.AccessiblePatients(ctx, "")
	require.NoError(t, err)
	require.Len(t, accessible.Patients, 1)
	require.Equal(t, "1985-07-02", accessible.Patients[0].BirthDate)

	shared, err := viewer.SharedWithMe(ctx)
	require.NoError(t, err)
	require.Len(t, shared.Patients, 1)
	require.Equal(t, "p-1", shared.Patients[0].Patient.ID)

	sent, err := owner.SentInvitations(ctx, "accepted")
	require.NoError(t, err)
	require.Len(t, sent.Invitations, 1)
	require.Equal(t, "thanks", sent.Invitations[0].ResponseNote)
}

func TestShareManagement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, true)

	owner := e.user(t, "owner", domain.RoleUser)
	viewer := e.user(t, "viewer", domain.RoleUser)
	e.patient(t, "p-1", "u-owner", true)

	inv, err := owner.SendShareInvitation(ctx, "p-1", sharesdk.SendShareRequest{Recipient: "viewer", PermissionLevel: "view"})
	require.NoError(t, err)
	_, err = viewer.AcceptInvitation(ctx, inv.ID, "")
	require.NoError(t, err)

	// Only the owner lists or changes shares
	_, err = viewer.PatientShares(ctx, "p-1")
	requireAPIError(t, err, http.StatusForbidden, sharesdk.ErrorCodeAccessDenied)

	level := "full"
	updated, err := owner.UpdateShare(ctx, "p-1", "u-viewer", sharesdk.UpdateShareRequest{PermissionLevel: &level})
	require.NoError(t, err)
	require.Equal(t, "full", updated.PermissionLevel)

	bogus := "admin"
	_, err = owner.UpdateShare(ctx, "p-1", "u-viewer", sharesdk.UpdateShareRequest{PermissionLevel: &bogus})
	requireAPIError(t, err, http.StatusBadRequest, sharesdk.ErrorCodeInvalidPermission)

	shares, err := owner.PatientShares(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, shares.Shares, 1)

	require.NoError(t, owner.RevokeShare(ctx, "p-1", "u-viewer"))
	err = owner.RevokeShare(ctx, "p-1", "u-viewer")
	requireAPIError(t, err, http.StatusNotFound, sharesdk.ErrorCodeShareNotFound)

	_, err = viewer.PatientAccess(ctx, "p-1")
	requireAPIError(t, err, http.StatusForbidden, sharesdk.ErrorCodeAccessDenied)

	sent, err := owner.SentInvitations(ctx, "revoked")
	require.NoError(t, err)
	require.Len(t, sent.Invitations, 1)
}

func TestBulkInvitation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, true)

	owner := e.user(t, "owner", domain.RoleUser)
	carer := e.user(t, "carer", domain.RoleUser)
	e.patient(t, "p-1", "u-owner", true)
	e.patient(t, "p-2", "u-owner", false)

	_, err := owner.BulkSendShareInvitations(ctx, sharesdk.BulkSendRequest{
		PatientIDs:      []string{"p-1", "missing"},
		Recipient:       "carer",
		PermissionLevel: "view",
	})
	requireAPIError(t, err, http.StatusNotFound, sharesdk.ErrorCodePatientNotFound)

	res, err := owner.BulkSendShareInvitations(ctx, sharesdk.BulkSendRequest{
		PatientIDs:      []string{"p-1", "p-2", "p-1"},
		Recipient:       "carer",
		PermissionLevel: "view",
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.PatientCount)

	accepted, err := carer.AcceptInvitation(ctx, res.InvitationID, "")
	require.NoError(t, err)
	require.True(t, accepted.Bulk)
	require.Len(t, accepted.Shares, 2)
}

func TestRejectCancelAndExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, true)

	owner := e.user(t, "owner", domain.RoleUser)
	viewer := e.user(t, "viewer", domain.RoleUser)
	e.patient(t, "p-1", "u-owner", true)
	e.patient(t, "p-2", "u-owner", false)
	e.patient(t, "p-3", "u-owner", false)

	first, err := owner.SendShareInvitation(ctx, "p-1", sharesdk.SendShareRequest{Recipient: "viewer", PermissionLevel: "view"})
	require.NoError(t, err)
	rejected, err := viewer.RejectInvitation(ctx, first.ID, "no thanks")
	require.NoError(t, err)
	require.Equal(t, "rejected", rejected.Status)

	_, err = viewer.AcceptInvitation(ctx, first.ID, "")
	requireAPIError(t, err, http.StatusNotFound, sharesdk.ErrorCodeInvitationNotFound)

	second, err := owner.SendShareInvitation(ctx, "p-2", sharesdk.SendShareRequest{Recipient: "viewer", PermissionLevel: "view"})
	require.NoError(t, err)
	_, err = viewer.CancelInvitation(ctx, second.ID)
	requireAPIError(t, err, http.StatusNotFound, sharesdk.ErrorCodeInvitationNotFound)
	cancelled, err := owner.CancelInvitation(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, "cancelled", cancelled.Status)

	third, err := owner.SendShareInvitation(ctx, "p-3", sharesdk.SendShareRequest{
		Recipient:       "viewer",
		PermissionLevel: "view",
		ExpiresHours:    1,
	})
	require.NoError(t, err)
	e.clock.Advance(2 * time.Hour)

	_, err = viewer.AcceptInvitation(ctx, third.ID, "")
	requireAPIError(t, err, http.StatusGone, sharesdk.ErrorCodeInvitationExpired)

	sent, err := owner.SentInvitations(ctx, "expired,cancelled")
	require.NoError(t, err)
	require.Len(t, sent.Invitations, 2)

	_, err = owner.SentInvitations(ctx, "bogus")
	requireAPIError(t, err, http.StatusBadRequest, sharesdk.ErrorCodeValidation)
}

func TestAdminTransfer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	e := newEnv(t, true)

	admin := e.user(t, "admin", domain.RoleAdmin, sharehttp.ScopeAdminWrite)
	fake := e.user(t, "fake", domain.RoleUser, sharehttp.ScopeAdminWrite)
	owner := e.user(t, "owner", domain.RoleUser)
	e.user(t, "child", domain.RoleUser)
	e.patient(t, "p-1", "u-owner", true)

	// The scope alone is not enough
	_, err := fake.TransferPatient(ctx, "p-1", "u-child")
	requireAPIError(t, err, http.StatusForbidden, sharesdk.ErrorCodePermissionDenied)

	_, err = owner.TransferPatient(ctx, "p-1", "u-child")
	requireAPIError(t, err, http.StatusForbidden, sharesdk.ErrorCodeInsufficientScope)

	_, err = admin.TransferPatient(ctx, "p-1", "u-nobody")
	requireAPIError(t, err, http.StatusNotFound, sharesdk.ErrorCodeUserNotFound)

	res, err := admin.TransferPatient(ctx, "p-1", "u-child")
	require.NoError(t, err)
	require.Equal(t, "u-owner", res.OriginalOwnerID)
	require.True(t, res.ReplacementCreated)
	require.True(t, res.EditShareGranted)

	access, err := owner.PatientAccess(ctx, "p-1")
	require.NoError(t, err)
	require.Equal(t, "individual_share", access.AccessType)
	require.Equal(t, "edit", access.PermissionLevel)
}

func TestMalformedBody(t *testing.T) {
	t.Parallel()
	e := newEnv(t, true)
	e.user(t, "owner", domain.RoleUser)
	e.patient(t, "p-1", "u-owner", true)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		e.client.BaseURL+"/v1/patients/p-1/share-invitations", strings.NewReader(`{"recipient":`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer u-owner")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
