package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

// AccessResolver decides whether a user may reach a patient record and at
// what level. It never writes.
type AccessResolver struct {
	Store store.Store
	Clock clock.Clock
}

// CanAccessPatient reports whether userID may act on patient at the required
// level. Owners always pass. Private records are closed to everyone else.
// Other users need an active, unexpired share whose level satisfies required.
func (r *AccessResolver) CanAccessPatient(
	ctx context.Context,
	userID string,
	patient domain.Patient,
	required domain.PermissionLevel,
) (bool, error) {
	if _, err := parseLevel(required); err != nil {
		return false, err
	}
	ac, err := r.patientContext(ctx, r.Store.Shares(), userID, patient)
	if err != nil {
		return false, err
	}
	switch ac.AccessType {
	case domain.AccessOwner:
		return true, nil
	case domain.AccessIndividualShare:
		return ac.PermissionLevel.Satisfies(required), nil
	default:
		return false, nil
	}
}

// GetAccessiblePatients returns every patient the user owns plus those
// reachable through a live share at the required level, de-duplicated and
// ordered by id.
func (r *AccessResolver) GetAccessiblePatients(
	ctx context.Context,
	userID string,
	required domain.PermissionLevel,
) ([]domain.Patient, error) {
	log := slogx.FromContext(ctx)
	if _, err := parseLevel(required); err != nil {
		return nil, err
	}
	now := nowFrom(r.Clock)

	// 1. Owned patients always count.
	owned, err := r.Store.Patients().ListPatientsByOwner(ctx, userID)
	if err != nil {
		log.Error("failed to list owned patients", slog.Any("error", err))
		return nil, err
	}
	byID := make(map[string]domain.Patient, len(owned))
	for _, p := range owned {
		byID[p.ID] = p
	}

	// 2. Shares granted to the user that are live and strong enough.
	shares, err := r.Store.Shares().ListActiveSharesForUser(ctx, userID)
	if err != nil {
		log.Error("failed to list shares for user", slog.Any("error", err))
		return nil, err
	}
	var sharedIDs []string
	for _, s := range shares {
		if _, ok := byID[s.PatientID]; ok {
			continue
		}
		if s.Grants(required, now) {
			sharedIDs = append(sharedIDs, s.PatientID)
		}
	}

	// 3. Batch-load the shared patients, dropping any that went private.
	if len(sharedIDs) > 0 {
		shared, err := r.Store.Patients().GetPatientsByIDs(ctx, sharedIDs)
		if err != nil {
			log.Error("failed to load shared patients", slog.Any("error", err))
			return nil, err
		}
		for _, p := range shared {
			if p.OwnerUserID == userID || !p.IsPrivate() {
				byID[p.ID] = p
			}
		}
	}

	out := make([]domain.Patient, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Patient) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// GetPatientContext explains how the user reaches the patient, for display.
func (r *AccessResolver) GetPatientContext(
	ctx context.Context,
	userID string,
	patient domain.Patient,
) (domain.AccessContext, error) {
	return r.patientContext(ctx, r.Store.Shares(), userID, patient)
}

// GetPatientContextByID loads the patient first. A user with no route to the
// record gets ErrAccessDenied rather than a context of type none.
func (r *AccessResolver) GetPatientContextByID(
	ctx context.Context,
	userID, patientID string,
) (domain.AccessContext, error) {
	p, err := r.Store.Patients().GetPatientByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AccessContext{}, ErrPatientNotFound
		}
		return domain.AccessContext{}, err
	}
	ac, err := r.GetPatientContext(ctx, userID, p)
	if err != nil {
		return domain.AccessContext{}, err
	}
	if !ac.HasAccess() {
		return domain.AccessContext{}, ErrAccessDenied
	}
	return ac, nil
}

// RequirePatientAccess loads a patient and fails unless the user can reach
// it at the required level.
func (r *AccessResolver) RequirePatientAccess(
	ctx context.Context,
	userID, patientID string,
	required domain.PermissionLevel,
) (domain.Patient, error) {
	p, err := r.Store.Patients().GetPatientByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Patient{}, ErrPatientNotFound
		}
		return domain.Patient{}, err
	}
	ok, err := r.CanAccessPatient(ctx, userID, p, required)
	if err != nil {
		return domain.Patient{}, err
	}
	if !ok {
		slogx.FromContext(ctx).Warn("patient access denied",
			slog.String("patient_id", patientID),
			slog.String("user_id", userID),
			slog.String("required", string(required)),
		)
		return domain.Patient{}, ErrAccessDenied
	}
	return p, nil
}

func (r *AccessResolver) patientContext(
	ctx context.Context,
	shares store.Shares,
	userID string,
	patient domain.Patient,
) (domain.AccessContext, error) {
	ac := domain.AccessContext{PatientID: patient.ID, UserID: userID, AccessType: domain.AccessNone}

	if patient.OwnerUserID == userID {
		ac.AccessType = domain.AccessOwner
		ac.PermissionLevel = domain.PermissionFull
		return ac, nil
	}
	if patient.IsPrivate() {
		return ac, nil
	}

	s, err := shares.GetActiveShare(ctx, patient.ID, userID)
	if errors.Is(err, store.ErrNotFound) {
		// Family and group access would be consulted here.
		return ac, nil
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to look up share", slog.Any("error", err))
		return domain.AccessContext{}, err
	}
	if s.IsExpired(nowFrom(r.Clock)) {
		return ac, nil
	}

	ac.AccessType = domain.AccessIndividualShare
	ac.PermissionLevel = s.PermissionLevel
	ac.ExpiresAt = s.ExpiresAt
	return ac, nil
}
