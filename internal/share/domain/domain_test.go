package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPermissionOrdering(t *testing.T) {
	t.Parallel()

	levels := []PermissionLevel{PermissionView, PermissionEdit, PermissionFull}
	for i, have := range levels {
		for j, want := range levels {
			require.Equal(t, i >= j, have.Satisfies(want), "%s satisfies %s", have, want)
		}
	}

	require.False(t, PermissionLevel("owner").Satisfies(PermissionView))
	require.False(t, PermissionFull.Satisfies("owner"))

	_, err := ParsePermissionLevel("edit")
	require.NoError(t, err)
	_, err = ParsePermissionLevel("EDIT")
	require.Error(t, err)
}

func TestShareGrants(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	s := PatientShare{PermissionLevel: PermissionEdit, IsActive: true}
	require.True(t, s.Grants(PermissionView, now))
	require.False(t, s.Grants(PermissionFull, now))

	s.ExpiresAt = &now
	require.False(t, s.Grants(PermissionView, now))
	s.ExpiresAt = &past
	require.False(t, s.Grants(PermissionView, now))
	s.ExpiresAt = &future
	require.True(t, s.Grants(PermissionView, now))

	s.IsActive = false
	require.False(t, s.Grants(PermissionView, now))
}

func TestInvitationTransitions(t *testing.T) {
	t.Parallel()

	require.True(t, StatusPending.CanTransitionTo(StatusAccepted))
	require.True(t, StatusPending.CanTransitionTo(StatusRejected))
	require.True(t, StatusPending.CanTransitionTo(StatusExpired))
	require.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	require.False(t, StatusPending.CanTransitionTo(StatusRevoked))
	require.False(t, StatusPending.CanTransitionTo(StatusPending))

	require.True(t, StatusAccepted.CanTransitionTo(StatusRevoked))
	require.False(t, StatusAccepted.CanTransitionTo(StatusRejected))

	for _, s := range []InvitationStatus{StatusRejected, StatusExpired, StatusCancelled, StatusRevoked} {
		require.True(t, s.IsTerminal())
		for _, next := range []InvitationStatus{StatusPending, StatusAccepted, StatusRevoked} {
			require.False(t, s.CanTransitionTo(next), "%s -> %s", s, next)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("single patient", func(t *testing.T) {
		raw, err := EncodeContext(PatientShareContext{PatientID: "p-1", PatientName: "Pat", PermissionLevel: PermissionView})
		require.NoError(t, err)
		got, err := DecodeContext(TypePatientShare, raw)
		require.NoError(t, err)
		require.Equal(t, PatientShareContext{PatientID: "p-1", PatientName: "Pat", PermissionLevel: PermissionView}, got)
	})

	t.Run("bulk sets its discriminator and count", func(t *testing.T) {
		raw, err := EncodeContext(BulkPatientShareContext{
			Patients:        []BulkPatientEntry{{PatientID: "a"}, {PatientID: "b"}},
			PermissionLevel: PermissionEdit,
		})
		require.NoError(t, err)
		require.Contains(t, string(raw), `"is_bulk_invite":true`)

		got, err := DecodeContext(TypePatientShare, raw)
		require.NoError(t, err)
		bulk, ok := got.(BulkPatientShareContext)
		require.True(t, ok)
		require.Equal(t, 2, bulk.PatientCount)
	})

	t.Run("unknown type or empty payload", func(t *testing.T) {
		_, err := DecodeContext("group_share", []byte(`{}`))
		require.ErrorIs(t, err, ErrUnknownContext)
		_, err = DecodeContext(TypePatientShare, nil)
		require.ErrorIs(t, err, ErrUnknownContext)
	})
}

func TestCopyDemographics(t *testing.T) {
	t.Parallel()
	bd := time.Date(1980, 1, 2, 0, 0, 0, 0, time.UTC)
	h := 170.0
	src := Patient{ID: "p", OwnerUserID: "u", IsSelfRecord: true, FirstName: "A", LastName: "B", BirthDate: &bd, HeightCM: &h}

	cp := src.CopyDemographics()
	require.Empty(t, cp.ID)
	require.Empty(t, cp.OwnerUserID)
	require.False(t, cp.IsSelfRecord)
	require.Equal(t, "A B", cp.FullName())
	require.Equal(t, PrivacyDefault, cp.PrivacyLevel)

	*cp.HeightCM = 1
	require.InDelta(t, 170.0, *src.HeightCM, 0.001)
}
