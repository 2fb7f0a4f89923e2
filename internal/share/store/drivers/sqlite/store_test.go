package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(DSN(filepath.Join(t.TempDir(), "share.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seed(t *testing.T, s *Store) (owner, other domain.User, patient domain.Patient) {
	t.Helper()
	ctx := context.Background()

	owner = domain.User{ID: "u-owner", Username: "owner", Email: "owner@example.com", CreatedAt: t0, UpdatedAt: t0}
	other = domain.User{ID: "u-other", Username: "other", Email: "other@example.com", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, s.Users().CreateUser(ctx, owner))
	require.NoError(t, s.Users().CreateUser(ctx, other))

	h := 172.5
	patient = domain.Patient{
		ID: "p-1", OwnerUserID: owner.ID, IsSelfRecord: true,
		FirstName: "Ada", LastName: "Lovelace", HeightCM: &h,
		CreatedAt: t0, UpdatedAt: t0,
	}
	require.NoError(t, s.Patients().CreatePatient(ctx, patient))
	return owner, other, patient
}

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
}

func TestPatientsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	owner, _, patient := seed(t, s)

	got, err := s.Patients().GetPatientByID(ctx, patient.ID)
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.FullName())
	require.True(t, got.IsSelfRecord)
	require.Equal(t, domain.PrivacyDefault, got.PrivacyLevel)
	require.NotNil(t, got.HeightCM)
	require.InDelta(t, 172.5, *got.HeightCM, 0.001)
	require.Nil(t, got.BirthDate)
	require.True(t, got.CreatedAt.Equal(t0))

	_, err = s.Patients().GetPatientByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	t.Run("only one self-record per owner", func(t *testing.T) {
		dup := domain.Patient{ID: "p-dup", OwnerUserID: owner.ID, IsSelfRecord: true, CreatedAt: t0, UpdatedAt: t0}
		require.ErrorIs(t, s.Patients().CreatePatient(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("batch fetch skips unknown ids", func(t *testing.T) {
		got, err := s.Patients().GetPatientsByIDs(ctx, []string{patient.ID, "nope"})
		require.NoError(t, err)
		require.Len(t, got, 1)
	})
}

func TestSharesActiveUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	owner, other, patient := seed(t, s)

	share := domain.PatientShare{
		ID: "s-1", PatientID: patient.ID, SharedByUserID: owner.ID, SharedWithUserID: other.ID,
		PermissionLevel: domain.PermissionView, IsActive: true,
		CustomPermissions: map[string]any{"notes": true},
		CreatedAt:         t0, UpdatedAt: t0,
	}
	require.NoError(t, s.Shares().CreateShare(ctx, share))

	second := share
	second.ID = "s-2"
	require.ErrorIs(t, s.Shares().CreateShare(ctx, second), store.ErrAlreadyExists)

	got, err := s.Shares().GetActiveShare(ctx, patient.ID, other.ID)
	require.NoError(t, err)
	require.Equal(t, share.ID, got.ID)
	require.Equal(t, true, got.CustomPermissions["notes"])

	// After deactivation a fresh active row is allowed again.
	require.NoError(t, s.Shares().DeactivateShare(ctx, share.ID, t0.Add(time.Minute)))
	require.ErrorIs(t, s.Shares().DeactivateShare(ctx, share.ID, t0.Add(time.Minute)), store.ErrNotFound)
	require.NoError(t, s.Shares().CreateShare(ctx, second))

	latest, err := s.Shares().GetLatestShare(ctx, patient.ID, other.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
}

func TestDeactivateExpiredShares(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	owner, other, patient := seed(t, s)

	exp := t0.Add(time.Hour)
	require.NoError(t, s.Shares().CreateShare(ctx, domain.PatientShare{
		ID: "s-1", PatientID: patient.ID, SharedByUserID: owner.ID, SharedWithUserID: other.ID,
		PermissionLevel: domain.PermissionEdit, IsActive: true, ExpiresAt: &exp,
		CreatedAt: t0, UpdatedAt: t0,
	}))

	n, err := s.Shares().DeactivateExpiredShares(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	require.Zero(t, n)

	// Expiry exactly at now counts as expired.
	n, err = s.Shares().DeactivateExpiredShares(ctx, exp)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = s.Shares().GetActiveShare(ctx, patient.ID, other.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitationStatusCompareAndSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	owner, other, patient := seed(t, s)

	payload, err := domain.EncodeContext(domain.PatientShareContext{
		PatientID: patient.ID, PermissionLevel: domain.PermissionView,
	})
	require.NoError(t, err)

	exp := t0.Add(24 * time.Hour)
	inv := domain.Invitation{
		ID: "i-1", SentByUserID: owner.ID, SentToUserID: other.ID,
		Type: domain.TypePatientShare, Status: domain.StatusPending,
		Context: payload, ExpiresAt: &exp, CreatedAt: t0, UpdatedAt: t0,
	}
	require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))

	found, err := s.Invitations().FindPendingPatientShare(ctx, owner.ID, other.ID, patient.ID)
	require.NoError(t, err)
	require.Equal(t, inv.ID, found.ID)

	at := t0.Add(time.Hour)
	change := domain.StatusChange{
		InvitationID: inv.ID, From: domain.StatusPending, To: domain.StatusAccepted,
		RespondedAt: &at, At: at,
	}
	require.NoError(t, s.Invitations().UpdateInvitationStatus(ctx, change))
	require.ErrorIs(t, s.Invitations().UpdateInvitationStatus(ctx, change), store.ErrConflict)

	change.InvitationID = "missing"
	require.ErrorIs(t, s.Invitations().UpdateInvitationStatus(ctx, change), store.ErrNotFound)

	got, err := s.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, got.Status)
	require.NotNil(t, got.RespondedAt)
	require.True(t, got.RespondedAt.Equal(at))

	_, err = s.Invitations().FindPendingPatientShare(ctx, owner.ID, other.ID, patient.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListInvitationsFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	owner, other, _ := seed(t, s)

	for i, exp := range []time.Time{t0.Add(time.Hour), t0.Add(48 * time.Hour)} {
		exp := exp
		require.NoError(t, s.Invitations().CreateInvitation(ctx, domain.Invitation{
			ID: []string{"i-a", "i-b"}[i], SentByUserID: owner.ID, SentToUserID: other.ID,
			Type: domain.TypeFamilyHistoryShare, Status: domain.StatusPending,
			ExpiresAt: &exp, CreatedAt: t0.Add(time.Duration(i) * time.Second), UpdatedAt: t0,
		}))
	}

	all, err := s.Invitations().ListInvitations(ctx, store.InvitationFilter{SentToUserID: other.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "i-b", all[0].ID, "newest first")

	cutoff := t0.Add(2 * time.Hour)
	overdue, err := s.Invitations().ListInvitations(ctx, store.InvitationFilter{
		Statuses:          []domain.InvitationStatus{domain.StatusPending},
		ExpiresAtOrBefore: &cutoff,
	})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, "i-a", overdue[0].ID)
}

func TestTransactionRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	_, other, _ := seed(t, s)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		pid := "p-1"
		if err := tx.Users().SetActivePatient(ctx, other.ID, &pid, t0); err != nil {
			return err
		}
		return store.ErrConflict
	})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.Users().GetUserByID(ctx, other.ID)
	require.NoError(t, err)
	require.Nil(t, got.ActivePatientID)
}
