package share_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/pkg/sharesdk"
)

func TestServiceIsReady(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *service) {
		ready, err := s.client.GetReadiness(context.Background())
		require.NoError(t, err)
		require.Equal(t, "ok", ready.Status)
		require.Equal(t, "ok", ready.Checks.Keys)
	})
}

func TestSignedTokensAreVerified(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *service) {
		ctx := context.Background()
		s.user(t, "owner", domain.RoleUser)

		// Signed by a key the JWKS does not publish
		other := startIssuer(t)
		_, err := s.client.WithToken(other.token(t, "u-owner", userScopes...)).SharedWithMe(ctx)
		require.True(t, sharesdk.IsCode(err, sharesdk.ErrorCodeInvalidToken), err)
	})
}

// TestConcurrentAcceptYieldsOneShare fires several accepts of one invitation
// at once. Every call succeeds and the recipient ends up with one share.
func TestConcurrentAcceptYieldsOneShare(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *service) {
		ctx := context.Background()
		owner := s.user(t, "owner", domain.RoleUser)
		viewer := s.user(t, "viewer", domain.RoleUser)
		s.patient(t, "p-1", "u-owner", true)

		inv, err := owner.SendShareInvitation(ctx, "p-1", sharesdk.SendShareRequest{
			Recipient:       "viewer",
			PermissionLevel: "view",
		})
		require.NoError(t, err)

		const n = 4
		var wg sync.WaitGroup
		shareIDs := make([]string, n)
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := viewer.AcceptInvitation(ctx, inv.ID, "")
				errs[i] = err
				if err == nil && len(res.Shares) == 1 {
					shareIDs[i] = res.Shares[0].ID
				}
			}()
		}
		wg.Wait()

		for i := range n {
			require.NoError(t, errs[i])
			require.Equal(t, shareIDs[0], shareIDs[i])
		}

		shares, err := owner.PatientShares(ctx, "p-1")
		require.NoError(t, err)
		require.Len(t, shares.Shares, 1)
	})
}

func TestFamilyTransferEndToEnd(t *testing.T) {
	forEachDriver(t, func(t *testing.T, s *service) {
		ctx := context.Background()
		admin := s.user(t, "admin", domain.RoleAdmin, "admin:write")
		parent := s.user(t, "parent", domain.RoleUser)
		child := s.user(t, "child", domain.RoleUser)
		carer := s.user(t, "carer", domain.RoleUser)
		s.patient(t, "p-parent", "u-parent", true)
		s.patient(t, "p-kid", "u-parent", false)

		// The parent shares both records with a carer in one go
		bulk, err := parent.BulkSendShareInvitations(ctx, sharesdk.BulkSendRequest{
			PatientIDs:      []string{"p-parent", "p-kid"},
			Recipient:       "carer@example.com",
			PermissionLevel: "view",
		})
		require.NoError(t, err)
		accepted, err := carer.AcceptInvitation(ctx, bulk.InvitationID, "")
		require.NoError(t, err)
		require.Len(t, accepted.Shares, 2)

		// The child comes of age and takes over their record
		res, err := admin.TransferPatient(ctx, "p-kid", "u-child")
		require.NoError(t, err)
		require.False(t, res.ReplacementCreated)
		require.True(t, res.EditShareGranted)

		access, err := child.PatientAccess(ctx, "p-kid")
		require.NoError(t, err)
		require.Equal(t, "owner", access.AccessType)

		access, err = parent.PatientAccess(ctx, "p-kid")
		require.NoError(t, err)
		require.Equal(t, "edit", access.PermissionLevel)

		// The carer's share survives the change of owner
		shared, err := carer.SharedWithMe(ctx)
		require.NoError(t, err)
		require.Len(t, shared.Patients, 2)

		// Only the new owner manages the record's shares now
		_, err = parent.PatientShares(ctx, "p-kid")
		var apiErr *sharesdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)

		require.NoError(t, child.RevokeShare(ctx, "p-kid", "u-carer"))
		shared, err = carer.SharedWithMe(ctx)
		require.NoError(t, err)
		require.Len(t, shared.Patients, 1)
	})
}
