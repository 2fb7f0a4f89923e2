package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

func nowFrom(c clock.Clock) time.Time {
	if c == nil {
		return clock.System.Now()
	}
	return c.Now()
}

// parseLevel validates a requested permission level.
func parseLevel(level domain.PermissionLevel) (domain.PermissionLevel, error) {
	if !level.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPermissionLevel, level)
	}
	return level, nil
}

// resolveUser looks a user up by id, then by email or username.
func resolveUser(ctx context.Context, users store.Users, identifier string) (domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.User{}, store.ErrNotFound
	}

	u, err := users.GetUserByID(ctx, identifier)
	if !errors.Is(err, store.ErrNotFound) {
		return u, err
	}
	if strings.Contains(identifier, "@") {
		return users.GetUserByEmail(ctx, identifier)
	}
	return users.GetUserByUsername(ctx, identifier)
}

// resolveRecipient maps a recipient identifier to a user, rejecting unknown
// recipients and the sender themselves.
func resolveRecipient(ctx context.Context, users store.Users, senderID, identifier string) (domain.User, error) {
	log := slogx.FromContext(ctx)

	u, err := resolveUser(ctx, users, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("recipient did not resolve", slog.String("recipient", identifier))
			return domain.User{}, ErrRecipientNotFound
		}
		log.Error("failed to resolve recipient", slog.Any("error", err))
		return domain.User{}, err
	}
	if u.ID == senderID {
		return domain.User{}, ErrSelfShareAttempt
	}
	return u, nil
}

// ownedPatient loads a patient and checks the caller owns it.
func ownedPatient(ctx context.Context, patients store.Patients, ownerID, patientID string) (domain.Patient, error) {
	p, err := patients.GetPatientByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Patient{}, ErrPatientNotFound
		}
		return domain.Patient{}, err
	}
	if p.OwnerUserID != ownerID {
		slogx.FromContext(ctx).Warn("caller does not own patient",
			slog.String("patient_id", patientID),
			slog.String("caller_id", ownerID),
		)
		return domain.Patient{}, ErrAccessDenied
	}
	return p, nil
}

// retireIfExpired switches off an active share whose expiry has passed so
// the pair is free for a new grant. It reports whether the share is still
// live afterwards.
func retireIfExpired(ctx context.Context, shares store.Shares, s domain.PatientShare, now time.Time) (bool, error) {
	if !s.IsExpired(now) {
		return true, nil
	}
	if err := shares.DeactivateShare(ctx, s.ID, now); err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, err
	}
	return false, nil
}

// upsertShare grants want on its (patient, shared_with) pair. A live active
// share is updated in place, an inactive history row is reactivated, and only
// when neither exists is a new row inserted.
func upsertShare(ctx context.Context, shares store.Shares, want domain.PatientShare, now time.Time) (domain.PatientShare, error) {
	want.IsActive = true
	want.UpdatedAt = now

	latest, err := shares.GetLatestShare(ctx, want.PatientID, want.SharedWithUserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		want.CreatedAt = now
		if err := shares.CreateShare(ctx, want); err != nil {
			return domain.PatientShare{}, err
		}
		return want, nil
	case err != nil:
		return domain.PatientShare{}, err
	}

	want.ID = latest.ID
	want.CreatedAt = latest.CreatedAt
	if latest.IsActive {
		want.InvitationID = latest.InvitationID
		if err := shares.UpdateShare(ctx, want); err != nil {
			return domain.PatientShare{}, err
		}
		want.SharedByUserID = latest.SharedByUserID
		return want, nil
	}
	if err := shares.ReactivateShare(ctx, want); err != nil {
		return domain.PatientShare{}, err
	}
	return want, nil
}
