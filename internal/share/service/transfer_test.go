package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/stretchr/testify/require"
)

func TestTransferSelfRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.user(t, "alice", domain.RoleUser)
	b := f.user(t, "bob", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	p1 := f.patient(t, "p-1", a, true)
	require.NoError(t, f.store.Users().SetActivePatient(ctx, a.ID, &p1.ID, t0))

	f.clock.Advance(time.Minute)
	res, err := f.transfer.TransferPatientOwnership(ctx, p1.ID, b.ID, admin.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, res.OriginalOwnerID)
	require.Equal(t, b.ID, res.NewOwnerID)
	require.True(t, res.ReplacementCreated)
	require.True(t, res.EditShareGranted)

	moved, err := f.store.Patients().GetPatientByID(ctx, p1.ID)
	require.NoError(t, err)
	require.Equal(t, b.ID, moved.OwnerUserID)
	require.True(t, moved.IsSelfRecord)

	p2, err := f.store.Patients().GetPatientByID(ctx, res.ReplacementPatientID)
	require.NoError(t, err)
	require.Equal(t, a.ID, p2.OwnerUserID)
	require.True(t, p2.IsSelfRecord)
	require.Equal(t, p1.FirstName, p2.FirstName)
	require.Equal(t, p1.LastName, p2.LastName)
	require.True(t, p1.BirthDate.Equal(*p2.BirthDate))
	require.Equal(t, p1.Gender, p2.Gender)
	require.Equal(t, p1.BloodType, p2.BloodType)
	require.InDelta(t, *p1.HeightCM, *p2.HeightCM, 0.001)
	require.Equal(t, p1.Address, p2.Address)

	owned, err := f.store.Patients().ListPatientsByOwner(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1, "exactly one replacement")

	gotA, err := f.store.Users().GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, gotA.ActivePatientID)
	require.Equal(t, p2.ID, *gotA.ActivePatientID)

	gotB, err := f.store.Users().GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, gotB.ActivePatientID)
	require.Equal(t, p1.ID, *gotB.ActivePatientID)

	share, err := f.store.Shares().GetActiveShare(ctx, p1.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, res.EditShareID, share.ID)
	require.Equal(t, domain.PermissionEdit, share.PermissionLevel)
	require.Equal(t, b.ID, share.SharedByUserID)

	ok, err := f.access.CanAccessPatient(ctx, a.ID, moved, domain.PermissionEdit)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTransferNonSelfRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.user(t, "alice", domain.RoleUser)
	b := f.user(t, "bob", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	self := f.patient(t, "p-self", a, true)
	child := f.patient(t, "p-child", a, false)
	bSelf := f.patient(t, "p-bob", b, true)
	require.NoError(t, f.store.Users().SetActivePatient(ctx, a.ID, &child.ID, t0))

	res, err := f.transfer.TransferPatientOwnership(ctx, child.ID, b.ID, admin.ID)
	require.NoError(t, err)
	require.False(t, res.ReplacementCreated)
	require.Empty(t, res.ReplacementPatientID)

	owned, err := f.store.Patients().ListPatientsByOwner(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, self.ID, owned[0].ID)

	gotA, err := f.store.Users().GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, self.ID, *gotA.ActivePatientID)

	// Bob's previous self-record gives way to the transferred one.
	prev, err := f.store.Patients().GetPatientByID(ctx, bSelf.ID)
	require.NoError(t, err)
	require.False(t, prev.IsSelfRecord)
	cur, err := f.store.Patients().GetSelfRecord(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, child.ID, cur.ID)
}

func TestTransferClearsActivePatientWhenNothingLeft(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.user(t, "alice", domain.RoleUser)
	b := f.user(t, "bob", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	only := f.patient(t, "p-1", a, false)
	require.NoError(t, f.store.Users().SetActivePatient(ctx, a.ID, &only.ID, t0))

	_, err := f.transfer.TransferPatientOwnership(ctx, only.ID, b.ID, admin.ID)
	require.NoError(t, err)

	gotA, err := f.store.Users().GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, gotA.ActivePatientID)
}

func TestTransferReactivatesEditShare(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.user(t, "alice", domain.RoleUser)
	b := f.user(t, "bob", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	p := f.patient(t, "p-1", a, false)

	first, err := f.transfer.TransferPatientOwnership(ctx, p.ID, b.ID, admin.ID)
	require.NoError(t, err)

	// Handing it back retires alice's share, since she owns it again.
	f.clock.Advance(time.Minute)
	_, err = f.transfer.TransferPatientOwnership(ctx, p.ID, a.ID, admin.ID)
	require.NoError(t, err)
	require.Empty(t, f.activeSharesFor(t, p.ID, a.ID))

	f.clock.Advance(time.Minute)
	third, err := f.transfer.TransferPatientOwnership(ctx, p.ID, b.ID, admin.ID)
	require.NoError(t, err)
	require.Equal(t, first.EditShareID, third.EditShareID)
	require.Len(t, f.activeSharesFor(t, p.ID, a.ID), 1)
}

func TestTransferValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.user(t, "alice", domain.RoleUser)
	b := f.user(t, "bob", domain.RoleUser)
	admin := f.user(t, "admin", domain.RoleAdmin)
	p := f.patient(t, "p-1", a, true)

	_, err := f.transfer.TransferPatientOwnership(ctx, p.ID, b.ID, a.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.transfer.TransferPatientOwnership(ctx, p.ID, b.ID, "u-nobody")
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.transfer.TransferPatientOwnership(ctx, "missing", b.ID, admin.ID)
	require.ErrorIs(t, err, ErrPatientNotFound)

	_, err = f.transfer.TransferPatientOwnership(ctx, p.ID, "u-nobody", admin.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.transfer.TransferPatientOwnership(ctx, p.ID, a.ID, admin.ID)
	require.ErrorIs(t, err, ErrValidation)

	// Nothing moved.
	got, err := f.store.Patients().GetPatientByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.OwnerUserID)
}
