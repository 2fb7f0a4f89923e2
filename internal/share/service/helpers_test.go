package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store/drivers/sqlite"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store       *sqlite.Store
	clock       *clock.Fake
	access      *AccessResolver
	invitations *InvitationService
	sharing     *SharingService
	transfer    *TransferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "share.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clk := clock.NewFake(t0)
	inv := &InvitationService{Store: st, Clock: clk}
	return &fixture{
		store:       st,
		clock:       clk,
		access:      &AccessResolver{Store: st, Clock: clk},
		invitations: inv,
		sharing:     &SharingService{Store: st, Clock: clk, Invitations: inv},
		transfer:    &TransferService{Store: st, Clock: clk},
	}
}

func (f *fixture) user(t *testing.T, name string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{
		ID:        "u-" + name,
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		CreatedAt: t0,
		UpdatedAt: t0,
	}
	require.NoError(t, f.store.Users().CreateUser(context.Background(), u))
	return u
}

func (f *fixture) patient(t *testing.T, id string, owner domain.User, self bool) domain.Patient {
	t.Helper()
	bd := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	h := 180.0
	p := domain.Patient{
		ID:           id,
		OwnerUserID:  owner.ID,
		IsSelfRecord: self,
		FirstName:    "Pat",
		LastName:     id,
		BirthDate:    &bd,
		Gender:       "female",
		BloodType:    "O+",
		HeightCM:     &h,
		Address:      "1 Example St",
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.store.Patients().CreatePatient(context.Background(), p))
	return p
}

// sendAndAccept shares a patient through a full invitation round trip.
func (f *fixture) sendAndAccept(
	t *testing.T,
	owner, recipient domain.User,
	patient domain.Patient,
	level domain.PermissionLevel,
) (domain.Invitation, domain.PatientShare) {
	t.Helper()
	ctx := context.Background()

	inv, err := f.sharing.SendPatientShareInvitation(ctx, SendShareParams{
		OwnerID:         owner.ID,
		PatientID:       patient.ID,
		Recipient:       recipient.Username,
		PermissionLevel: level,
	})
	require.NoError(t, err)

	share, err := f.sharing.AcceptPatientShareInvitation(ctx, recipient.ID, inv.ID, "")
	require.NoError(t, err)
	return inv, share
}

func (f *fixture) invitationStatus(t *testing.T, id string) domain.InvitationStatus {
	t.Helper()
	inv, err := f.store.Invitations().GetInvitationByID(context.Background(), id)
	require.NoError(t, err)
	return inv.Status
}

func (f *fixture) activeShares(t *testing.T, patientID string) []domain.PatientShare {
	t.Helper()
	shares, err := f.store.Shares().ListActiveSharesByPatient(context.Background(), patientID)
	require.NoError(t, err)
	return shares
}

func (f *fixture) activeSharesFor(t *testing.T, patientID, userID string) []domain.PatientShare {
	t.Helper()
	shares, err := f.store.Shares().GetActiveSharesForPatients(context.Background(), []string{patientID}, userID)
	require.NoError(t, err)
	return shares
}
