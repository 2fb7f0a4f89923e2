package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/idx"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

// MaxBulkPatients caps how many patients one bulk invitation may carry.
const MaxBulkPatients = 50

const defaultBulkStatementTimeout = 30 * time.Second

// errShareConflict aborts an accept transaction whose insert lost to a
// concurrent grant. It never leaves the package.
var errShareConflict = errors.New("share insert conflicted")

// SharingService turns invitations into patient shares and manages the
// shares afterwards.
type SharingService struct {
	Store       store.Store
	Clock       clock.Clock
	Invitations *InvitationService

	// BulkStatementTimeout bounds each statement of a bulk transaction.
	BulkStatementTimeout time.Duration
}

type SendShareParams struct {
	OwnerID           string
	PatientID         string
	Recipient         string
	PermissionLevel   domain.PermissionLevel
	ExpiresAt         *time.Time // expiry of the share once granted
	CustomPermissions map[string]any
	Message           string
	ExpiresHours      int // lifetime of the invitation itself
}

type BulkSendParams struct {
	OwnerID           string
	PatientIDs        []string
	Recipient         string
	PermissionLevel   domain.PermissionLevel
	ExpiresAt         *time.Time
	CustomPermissions map[string]any
	Message           string
	ExpiresHours      int
}

type BulkSendResult struct {
	InvitationID string
	PatientCount int
}

// AcceptResult is what accepting any invitation produced. Shares is empty
// for invitation types that do not grant patient access.
type AcceptResult struct {
	Invitation domain.Invitation
	Shares     []domain.PatientShare
	Bulk       bool
}

type UpdateShareParams struct {
	PermissionLevel   *domain.PermissionLevel
	ExpiresAt         *time.Time
	ClearExpiry       bool
	CustomPermissions map[string]any
}

// SharedPatient pairs a live share with the patient it opens.
type SharedPatient struct {
	Share   domain.PatientShare
	Patient domain.Patient
}

func (s *SharingService) now() time.Time { return nowFrom(s.Clock) }

func (s *SharingService) bulkTimeout() time.Duration {
	if s.BulkStatementTimeout > 0 {
		return s.BulkStatementTimeout
	}
	return defaultBulkStatementTimeout
}

// boundStatements applies the bulk statement timeout. Failure only loses the
// bound, so it is logged and otherwise ignored.
func (s *SharingService) boundStatements(ctx context.Context, tx store.Tx) {
	if err := tx.SetStatementTimeout(ctx, s.bulkTimeout()); err != nil {
		slogx.FromContext(ctx).Warn("failed to set bulk statement timeout", slog.Any("error", err))
	}
}

// SendPatientShareInvitation invites a recipient to a share of one patient
// record. The share itself is only written when the invitation is accepted.
func (s *SharingService) SendPatientShareInvitation(ctx context.Context, p SendShareParams) (domain.Invitation, error) {
	log := slogx.FromContext(ctx).With(slog.String("patient_id", p.PatientID))
	now := s.now()

	level, err := parseLevel(p.PermissionLevel)
	if err != nil {
		return domain.Invitation{}, err
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return domain.Invitation{}, fmt.Errorf("%w: share expiry must be in the future", ErrValidation)
	}

	var inv domain.Invitation
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Caller must own the patient
		patient, err := ownedPatient(ctx, tx.Patients(), p.OwnerID, p.PatientID)
		if err != nil {
			return err
		}

		// 2. Recipient must exist and differ from the owner
		recipient, err := resolveRecipient(ctx, tx.Users(), p.OwnerID, p.Recipient)
		if err != nil {
			return err
		}

		// 3. No live share for the pair
		cur, err := tx.Shares().GetActiveShare(ctx, patient.ID, recipient.ID)
		switch {
		case err == nil:
			live, err := retireIfExpired(ctx, tx.Shares(), cur, now)
			if err != nil {
				return err
			}
			if live {
				log.Warn("patient already shared", slog.String("recipient_id", recipient.ID))
				return ErrAlreadyShared
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		// 4. No other pending invitation for the same triple
		dup, err := tx.Invitations().FindPendingPatientShare(ctx, p.OwnerID, recipient.ID, patient.ID)
		switch {
		case err == nil:
			if !dup.IsExpired(now) {
				log.Warn("pending invitation already exists", slog.String("invitation_id", dup.ID))
				return ErrPendingInvitationExists
			}
			if _, err := s.Invitations.TransitionTx(ctx, tx, dup, domain.StatusExpired, ""); err != nil &&
				!errors.Is(err, ErrInvitationNotPendingOrNotFound) {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		// 5. Hand over to the invitation engine
		payload := domain.PatientShareContext{
			PatientID:         patient.ID,
			PatientName:       patient.FullName(),
			PatientBirthDate:  birthDate(patient),
			PermissionLevel:   level,
			CustomPermissions: p.CustomPermissions,
			ExpiresAt:         utcPtr(p.ExpiresAt),
		}
		inv, err = s.Invitations.CreateInvitationTx(ctx, tx, CreateInvitationParams{
			SenderID:     p.OwnerID,
			Recipient:    recipient.ID,
			Type:         domain.TypePatientShare,
			Title:        fmt.Sprintf("Access to %s's health record", patient.FullName()),
			Message:      p.Message,
			Context:      payload,
			ExpiresHours: p.ExpiresHours,
		})
		return err
	})
	return inv, err
}

// BulkSendPatientShareInvitations invites a recipient to several patient
// records through a single invitation. Any missing, foreign or already
// shared patient rejects the whole request.
func (s *SharingService) BulkSendPatientShareInvitations(ctx context.Context, p BulkSendParams) (BulkSendResult, error) {
	log := slogx.FromContext(ctx)
	now := s.now()

	level, err := parseLevel(p.PermissionLevel)
	if err != nil {
		return BulkSendResult{}, err
	}
	ids := dedupe(p.PatientIDs)
	switch {
	case len(ids) == 0:
		return BulkSendResult{}, fmt.Errorf("%w: no patients given", ErrValidation)
	case len(ids) > MaxBulkPatients:
		return BulkSendResult{}, fmt.Errorf("%w: at most %d patients per bulk invitation", ErrValidation, MaxBulkPatients)
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return BulkSendResult{}, fmt.Errorf("%w: share expiry must be in the future", ErrValidation)
	}

	var res BulkSendResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		s.boundStatements(ctx, tx)

		recipient, err := resolveRecipient(ctx, tx.Users(), p.OwnerID, p.Recipient)
		if err != nil {
			return err
		}

		// 1. Every patient exists and belongs to the caller
		patients, err := tx.Patients().GetPatientsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[string]domain.Patient, len(patients))
		for _, pt := range patients {
			byID[pt.ID] = pt
		}
		entries := make([]domain.BulkPatientEntry, 0, len(ids))
		for _, id := range ids {
			pt, ok := byID[id]
			if !ok {
				log.Warn("bulk share names unknown patient", slog.String("patient_id", id))
				return fmt.Errorf("%w: %s", ErrPatientNotFound, id)
			}
			if pt.OwnerUserID != p.OwnerID {
				log.Warn("bulk share names foreign patient", slog.String("patient_id", id))
				return fmt.Errorf("%w: %s", ErrAccessDenied, id)
			}
			entries = append(entries, domain.BulkPatientEntry{
				PatientID:        pt.ID,
				PatientName:      pt.FullName(),
				PatientBirthDate: birthDate(pt),
			})
		}

		// 2. None of them is already shared with the recipient
		existing, err := tx.Shares().GetActiveSharesForPatients(ctx, ids, recipient.ID)
		if err != nil {
			return err
		}
		for _, sh := range existing {
			live, err := retireIfExpired(ctx, tx.Shares(), sh, now)
			if err != nil {
				return err
			}
			if live {
				log.Warn("bulk share names already shared patient", slog.String("patient_id", sh.PatientID))
				return fmt.Errorf("%w: %s", ErrAlreadyShared, sh.PatientID)
			}
		}

		// 3. One invitation for the lot
		inv, err := s.Invitations.CreateInvitationTx(ctx, tx, CreateInvitationParams{
			SenderID:  p.OwnerID,
			Recipient: recipient.ID,
			Type:      domain.TypePatientShare,
			Title:     fmt.Sprintf("Access to %d health records", len(entries)),
			Message:   p.Message,
			Context: domain.BulkPatientShareContext{
				Patients:          entries,
				PermissionLevel:   level,
				CustomPermissions: p.CustomPermissions,
				ExpiresAt:         utcPtr(p.ExpiresAt),
			},
			ExpiresHours: p.ExpiresHours,
		})
		if err != nil {
			return err
		}
		res = BulkSendResult{InvitationID: inv.ID, PatientCount: len(entries)}
		return nil
	})
	return res, err
}

// AcceptInvitation accepts any invitation addressed to userID, dispatching
// on its payload.
func (s *SharingService) AcceptInvitation(ctx context.Context, userID, invitationID, note string) (AcceptResult, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AcceptResult{}, ErrInvitationNotPendingOrNotFound
		}
		return AcceptResult{}, err
	}
	if inv.SentToUserID != userID {
		return AcceptResult{}, ErrInvitationNotPendingOrNotFound
	}

	if inv.Type != domain.TypePatientShare {
		inv, err := s.Invitations.RespondToInvitation(ctx, userID, invitationID, true, note)
		if err != nil {
			return AcceptResult{}, err
		}
		return AcceptResult{Invitation: inv}, nil
	}

	payload, err := domain.DecodeContext(inv.Type, inv.Context)
	if err != nil {
		return AcceptResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, ok := payload.(domain.BulkPatientShareContext); ok {
		shares, err := s.AcceptBulkPatientShareInvitation(ctx, userID, invitationID, note)
		if err != nil {
			return AcceptResult{}, err
		}
		inv.Status = domain.StatusAccepted
		return AcceptResult{Invitation: inv, Shares: shares, Bulk: true}, nil
	}

	share, err := s.AcceptPatientShareInvitation(ctx, userID, invitationID, note)
	if err != nil {
		return AcceptResult{}, err
	}
	inv.Status = domain.StatusAccepted
	return AcceptResult{Invitation: inv, Shares: []domain.PatientShare{share}}, nil
}

// loadForAccept fetches a patient_share invitation addressed to userID. When
// the invitation was already accepted and its shares are still active, they
// are returned as a replay and the caller should not write anything.
func (s *SharingService) loadForAccept(
	ctx context.Context,
	userID, invitationID string,
) (domain.Invitation, domain.InvitationContext, []domain.PatientShare, error) {
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, nil, nil, ErrInvitationNotPendingOrNotFound
		}
		return domain.Invitation{}, nil, nil, err
	}
	if inv.SentToUserID != userID || inv.Type != domain.TypePatientShare {
		return domain.Invitation{}, nil, nil, ErrInvitationNotPendingOrNotFound
	}

	payload, err := domain.DecodeContext(inv.Type, inv.Context)
	if err != nil {
		return domain.Invitation{}, nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	switch inv.Status {
	case domain.StatusPending:
	case domain.StatusAccepted:
		replay, err := s.Store.Shares().ListActiveSharesByInvitation(ctx, inv.ID)
		if err != nil {
			return domain.Invitation{}, nil, nil, err
		}
		if len(replay) == 0 {
			return domain.Invitation{}, nil, nil, ErrInvitationNotPendingOrNotFound
		}
		return inv, payload, replay, nil
	default:
		return domain.Invitation{}, nil, nil, ErrInvitationNotPendingOrNotFound
	}

	if inv.IsExpired(s.now()) {
		if err := s.Invitations.MarkExpired(ctx, inv); err != nil {
			return domain.Invitation{}, nil, nil, err
		}
		slogx.FromContext(ctx).Warn("accept of expired invitation", slog.String("invitation_id", inv.ID))
		return domain.Invitation{}, nil, nil, ErrInvitationExpired
	}
	return inv, payload, nil, nil
}

// AcceptPatientShareInvitation grants the share a single-patient invitation
// offers. Concurrent accepts of the same invitation both succeed and leave
// exactly one active share: the loser's insert hits the active-share
// constraint and it reconciles against the winner's row.
func (s *SharingService) AcceptPatientShareInvitation(
	ctx context.Context,
	userID, invitationID, note string,
) (domain.PatientShare, error) {
	log := slogx.FromContext(ctx).With(slog.String("invitation_id", invitationID))

	inv, payload, replay, err := s.loadForAccept(ctx, userID, invitationID)
	if err != nil {
		return domain.PatientShare{}, err
	}
	pc, ok := payload.(domain.PatientShareContext)
	if !ok {
		return domain.PatientShare{}, fmt.Errorf("%w: bulk invitation accepted as single", ErrValidation)
	}
	if len(replay) > 0 {
		log.Info("accept replayed for already accepted invitation")
		return replay[0], nil
	}
	if !pc.PermissionLevel.Valid() {
		return domain.PatientShare{}, fmt.Errorf("%w: %q", ErrInvalidPermissionLevel, pc.PermissionLevel)
	}

	now := s.now()
	var share domain.PatientShare
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Sender must still own the patient
		if _, err := senderPatient(ctx, tx, inv.SentByUserID, pc.PatientID); err != nil {
			return err
		}

		// 2. An active share past its expiry no longer blocks the pair
		cur, err := tx.Shares().GetActiveShare(ctx, pc.PatientID, userID)
		switch {
		case err == nil:
			if _, err := retireIfExpired(ctx, tx.Shares(), cur, now); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		// 3. Insert and let the constraint arbitrate
		var conflict bool
		share, conflict, err = insertShare(ctx, tx.Shares(), s.shareFromInvitation(inv, pc.PatientID, pc.PermissionLevel,
			pc.ExpiresAt, pc.CustomPermissions, now))
		if err != nil {
			return err
		}
		if conflict {
			return errShareConflict
		}

		// 4. Advance the invitation
		_, err = s.Invitations.TransitionTx(ctx, tx, inv, domain.StatusAccepted, note)
		return err
	})

	if errors.Is(err, errShareConflict) {
		log.Info("share insert lost to concurrent grant, reconciling")
		return s.reconcileAccept(ctx, inv, pc.PatientID, note)
	}
	if err != nil {
		log.Error("failed to accept invitation", slog.Any("error", err))
		return domain.PatientShare{}, err
	}

	log.Info("patient share created",
		slog.String("share_id", share.ID),
		slog.String("patient_id", share.PatientID),
		slog.String("permission_level", string(share.PermissionLevel)),
	)
	return share, nil
}

// reconcileAccept runs after an accept's insert collided with an existing
// active share. It returns that share and still moves the invitation to
// accepted unless a concurrent accept already did.
func (s *SharingService) reconcileAccept(
	ctx context.Context,
	inv domain.Invitation,
	patientID, note string,
) (domain.PatientShare, error) {
	var share domain.PatientShare
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		share, err = tx.Shares().GetActiveShare(ctx, patientID, inv.SentToUserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrShareNotFound
			}
			return err
		}

		_, err = s.Invitations.TransitionTx(ctx, tx, inv, domain.StatusAccepted, note)
		if !errors.Is(err, ErrInvitationNotPendingOrNotFound) {
			return err
		}
		cur, rerr := tx.Invitations().GetInvitationByID(ctx, inv.ID)
		if rerr != nil || cur.Status != domain.StatusAccepted {
			return err
		}
		return nil
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to reconcile accept", slog.String("invitation_id", inv.ID), slog.Any("error", err))
		return domain.PatientShare{}, err
	}
	return share, nil
}

// AcceptBulkPatientShareInvitation grants every share a bulk invitation
// offers in one transaction. Patients the sender no longer owns are skipped.
// Any write failure rolls the whole batch back.
func (s *SharingService) AcceptBulkPatientShareInvitation(
	ctx context.Context,
	userID, invitationID, note string,
) ([]domain.PatientShare, error) {
	log := slogx.FromContext(ctx).With(slog.String("invitation_id", invitationID))

	inv, payload, replay, err := s.loadForAccept(ctx, userID, invitationID)
	if err != nil {
		return nil, err
	}
	bc, ok := payload.(domain.BulkPatientShareContext)
	if !ok {
		return nil, fmt.Errorf("%w: single invitation accepted as bulk", ErrValidation)
	}
	if len(replay) > 0 {
		log.Info("bulk accept replayed for already accepted invitation")
		return replay, nil
	}
	if !bc.PermissionLevel.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPermissionLevel, bc.PermissionLevel)
	}

	ids := make([]string, 0, len(bc.Patients))
	for _, e := range bc.Patients {
		ids = append(ids, e.PatientID)
	}
	ids = dedupe(ids)

	now := s.now()
	var out []domain.PatientShare
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		s.boundStatements(ctx, tx)
		out = out[:0]

		// 1. Re-read ownership for every patient at once
		patients, err := tx.Patients().GetPatientsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		owned := make(map[string]bool, len(patients))
		for _, pt := range patients {
			owned[pt.ID] = pt.OwnerUserID == inv.SentByUserID
		}

		existing, err := tx.Shares().GetActiveSharesForPatients(ctx, ids, userID)
		if err != nil {
			return err
		}
		active := make(map[string]domain.PatientShare, len(existing))
		for _, sh := range existing {
			active[sh.PatientID] = sh
		}

		// 2. Reuse, retire or create per patient
		for _, id := range ids {
			if !owned[id] {
				log.Warn("skipping patient no longer owned by sender", slog.String("patient_id", id))
				continue
			}
			if sh, ok := active[id]; ok {
				live, err := retireIfExpired(ctx, tx.Shares(), sh, now)
				if err != nil {
					return err
				}
				if live {
					out = append(out, sh)
					continue
				}
			}
			share, conflict, err := insertShare(ctx, tx.Shares(), s.shareFromInvitation(inv, id, bc.PermissionLevel,
				bc.ExpiresAt, bc.CustomPermissions, now))
			if err != nil {
				return err
			}
			if conflict {
				return fmt.Errorf("%w: %s", ErrAlreadyShared, id)
			}
			out = append(out, share)
		}

		// 3. Advance the invitation with the shares
		_, err = s.Invitations.TransitionTx(ctx, tx, inv, domain.StatusAccepted, note)
		return err
	})
	if err != nil {
		log.Error("failed to accept bulk invitation", slog.Any("error", err))
		return nil, err
	}

	log.Info("bulk invitation accepted", slog.Int("shares", len(out)), slog.Int("offered", len(ids)))
	return out, nil
}

// RevokePatientShare switches off the recipient's active share. It reports
// false when there was nothing to revoke. An accepted invitation behind the
// share moves to revoked once none of its shares remain active.
func (s *SharingService) RevokePatientShare(ctx context.Context, ownerID, patientID, sharedWithUserID string) (bool, error) {
	log := slogx.FromContext(ctx).With(slog.String("patient_id", patientID))
	now := s.now()

	revoked := false
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := ownedPatient(ctx, tx.Patients(), ownerID, patientID); err != nil {
			return err
		}

		share, err := tx.Shares().GetActiveShare(ctx, patientID, sharedWithUserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Shares().DeactivateShare(ctx, share.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		revoked = true

		if share.InvitationID == nil {
			return nil
		}
		inv, err := tx.Invitations().GetInvitationByID(ctx, *share.InvitationID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if inv.Status != domain.StatusAccepted {
			return nil
		}
		remaining, err := tx.Shares().ListActiveSharesByInvitation(ctx, inv.ID)
		if err != nil {
			return err
		}
		if len(remaining) > 0 {
			return nil
		}
		_, err = s.Invitations.TransitionTx(ctx, tx, inv, domain.StatusRevoked, "")
		return err
	})
	if err != nil {
		log.Error("failed to revoke share", slog.Any("error", err))
		return false, err
	}
	if revoked {
		log.Info("patient share revoked", slog.String("shared_with", sharedWithUserID))
	}
	return revoked, nil
}

// UpdatePatientShare changes the grant on an existing active share.
func (s *SharingService) UpdatePatientShare(
	ctx context.Context,
	ownerID, patientID, sharedWithUserID string,
	p UpdateShareParams,
) (domain.PatientShare, error) {
	now := s.now()
	if p.PermissionLevel != nil {
		if _, err := parseLevel(*p.PermissionLevel); err != nil {
			return domain.PatientShare{}, err
		}
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return domain.PatientShare{}, fmt.Errorf("%w: share expiry must be in the future", ErrValidation)
	}

	var share domain.PatientShare
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := ownedPatient(ctx, tx.Patients(), ownerID, patientID); err != nil {
			return err
		}
		var err error
		share, err = tx.Shares().GetActiveShare(ctx, patientID, sharedWithUserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrShareNotFound
			}
			return err
		}

		if p.PermissionLevel != nil {
			share.PermissionLevel = *p.PermissionLevel
		}
		switch {
		case p.ClearExpiry:
			share.ExpiresAt = nil
		case p.ExpiresAt != nil:
			share.ExpiresAt = utcPtr(p.ExpiresAt)
		}
		if p.CustomPermissions != nil {
			share.CustomPermissions = p.CustomPermissions
		}
		share.UpdatedAt = now
		return tx.Shares().UpdateShare(ctx, share)
	})
	if err != nil {
		return domain.PatientShare{}, err
	}
	slogx.FromContext(ctx).Info("patient share updated", slog.String("share_id", share.ID))
	return share, nil
}

// GetPatientShares lists the live shares of a patient for its owner.
func (s *SharingService) GetPatientShares(ctx context.Context, ownerID, patientID string) ([]domain.PatientShare, error) {
	if _, err := ownedPatient(ctx, s.Store.Patients(), ownerID, patientID); err != nil {
		return nil, err
	}
	shares, err := s.Store.Shares().ListActiveSharesByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return slices.DeleteFunc(shares, func(sh domain.PatientShare) bool { return sh.IsExpired(now) }), nil
}

// GetSharedWithMe lists the live shares granted to userID with the patients
// they open. Private records are left out.
func (s *SharingService) GetSharedWithMe(ctx context.Context, userID string) ([]SharedPatient, error) {
	shares, err := s.Store.Shares().ListActiveSharesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	shares = slices.DeleteFunc(shares, func(sh domain.PatientShare) bool { return sh.IsExpired(now) })
	if len(shares) == 0 {
		return []SharedPatient{}, nil
	}

	ids := make([]string, 0, len(shares))
	for _, sh := range shares {
		ids = append(ids, sh.PatientID)
	}
	patients, err := s.Store.Patients().GetPatientsByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}

	out := make([]SharedPatient, 0, len(shares))
	for _, sh := range shares {
		p, ok := byID[sh.PatientID]
		if !ok || p.IsPrivate() {
			continue
		}
		out = append(out, SharedPatient{Share: sh, Patient: p})
	}
	return out, nil
}

// SharePatientDirect grants a share without an invitation round trip.
func (s *SharingService) SharePatientDirect(
	ctx context.Context,
	ownerID, patientID, recipient string,
	level domain.PermissionLevel,
	expiresAt *time.Time,
) (domain.PatientShare, error) {
	now := s.now()
	if _, err := parseLevel(level); err != nil {
		return domain.PatientShare{}, err
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return domain.PatientShare{}, fmt.Errorf("%w: share expiry must be in the future", ErrValidation)
	}

	var share domain.PatientShare
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := ownedPatient(ctx, tx.Patients(), ownerID, patientID); err != nil {
			return err
		}
		u, err := resolveRecipient(ctx, tx.Users(), ownerID, recipient)
		if err != nil {
			return err
		}
		share, err = upsertShare(ctx, tx.Shares(), domain.PatientShare{
			ID:               idx.NewAt(now).String(),
			PatientID:        patientID,
			SharedByUserID:   ownerID,
			SharedWithUserID: u.ID,
			PermissionLevel:  level,
			ExpiresAt:        utcPtr(expiresAt),
		}, now)
		return err
	})
	if err != nil {
		return domain.PatientShare{}, err
	}
	slogx.FromContext(ctx).Info("patient shared directly",
		slog.String("share_id", share.ID),
		slog.String("patient_id", patientID),
	)
	return share, nil
}

// CleanupExpiredShares switches off every active share past its expiry.
func (s *SharingService) CleanupExpiredShares(ctx context.Context) (int, error) {
	n, err := s.Store.Shares().DeactivateExpiredShares(ctx, s.now())
	if err != nil {
		slogx.FromContext(ctx).Error("failed to clean up expired shares", slog.Any("error", err))
		return 0, err
	}
	slogx.FromContext(ctx).Debug("expired shares deactivated", slog.Int("count", n))
	return n, nil
}

func (s *SharingService) shareFromInvitation(
	inv domain.Invitation,
	patientID string,
	level domain.PermissionLevel,
	expiresAt *time.Time,
	custom map[string]any,
	now time.Time,
) domain.PatientShare {
	invID := inv.ID
	return domain.PatientShare{
		ID:                idx.NewAt(now).String(),
		PatientID:         patientID,
		SharedByUserID:    inv.SentByUserID,
		SharedWithUserID:  inv.SentToUserID,
		PermissionLevel:   level,
		IsActive:          true,
		ExpiresAt:         utcPtr(expiresAt),
		CustomPermissions: custom,
		InvitationID:      &invID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// insertShare writes a new active share. conflict is true when another
// active share for the pair already holds the slot.
func insertShare(ctx context.Context, shares store.Shares, want domain.PatientShare) (domain.PatientShare, bool, error) {
	err := shares.CreateShare(ctx, want)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.PatientShare{}, true, nil
	case err != nil:
		return domain.PatientShare{}, false, err
	}
	return want, false, nil
}

// senderPatient loads a patient and checks it still belongs to the sender.
// A changed owner reads as a missing patient.
func senderPatient(ctx context.Context, tx store.Tx, senderID, patientID string) (domain.Patient, error) {
	p, err := tx.Patients().GetPatientByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Patient{}, ErrPatientNotFound
		}
		return domain.Patient{}, err
	}
	if p.OwnerUserID != senderID {
		slogx.FromContext(ctx).Warn("patient changed owner since invitation was sent", slog.String("patient_id", patientID))
		return domain.Patient{}, ErrPatientNotFound
	}
	return p, nil
}

func birthDate(p domain.Patient) string {
	if p.BirthDate == nil {
		return ""
	}
	return p.BirthDate.UTC().Format(time.DateOnly)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// dedupe drops empty and repeated ids, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
