package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/aussiebroadwan/medshare/pkg/clock"
	"github.com/aussiebroadwan/medshare/pkg/idx"
	"github.com/aussiebroadwan/medshare/pkg/slogx"
)

// TransferService moves patient records between owners. It is the only
// writer of patient ownership.
type TransferService struct {
	Store store.Store
	Clock clock.Clock
}

type TransferResult struct {
	PatientID            string
	NewOwnerID           string
	OriginalOwnerID      string
	ReplacementCreated   bool
	ReplacementPatientID string
	EditShareGranted     bool
	EditShareID          string
}

// TransferPatientOwnership hands patientID to newOwnerID on behalf of an
// admin. The transferred record becomes the new owner's self-record. When it
// was the original owner's self-record they get a copy in its place, and
// they keep edit access to the transferred record either way.
func (s *TransferService) TransferPatientOwnership(
	ctx context.Context,
	patientID, newOwnerID, adminID string,
) (TransferResult, error) {
	log := slogx.FromContext(ctx).With(
		slog.String("patient_id", patientID),
		slog.String("new_owner_id", newOwnerID),
		slog.String("admin_id", adminID),
	)
	now := nowFrom(s.Clock)

	var res TransferResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 1. Only admins transfer
		admin, err := tx.Users().GetUserByID(ctx, adminID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if err != nil || !admin.IsAdmin() {
			log.Warn("transfer attempted by non-admin")
			return ErrPermissionDenied
		}

		// 2. Load the record and both owners
		patient, err := tx.Patients().GetPatientByID(ctx, patientID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrPatientNotFound
			}
			return err
		}
		newOwner, err := tx.Users().GetUserByID(ctx, newOwnerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if newOwner.ID == patient.OwnerUserID {
			return fmt.Errorf("%w: patient already belongs to %s", ErrValidation, newOwner.ID)
		}
		original, err := tx.Users().GetUserByID(ctx, patient.OwnerUserID)
		if err != nil {
			return err
		}
		res = TransferResult{PatientID: patient.ID, NewOwnerID: newOwner.ID, OriginalOwnerID: original.ID}

		// 3. The new owner can hold only one self-record
		if prev, err := tx.Patients().GetSelfRecord(ctx, newOwner.ID); err == nil {
			if err := tx.Patients().SetSelfRecord(ctx, prev.ID, false, now); err != nil {
				return err
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		// 4. Reassign the record
		if err := tx.Patients().UpdateOwnership(ctx, patient.ID, newOwner.ID, true, now); err != nil {
			return err
		}

		// 5. Replace the original owner's self-record
		if patient.IsSelfRecord {
			repl := patient.CopyDemographics()
			repl.ID = idx.NewAt(now).String()
			repl.OwnerUserID = original.ID
			repl.IsSelfRecord = true
			repl.CreatedAt = now
			repl.UpdatedAt = now
			if err := tx.Patients().CreatePatient(ctx, repl); err != nil {
				return err
			}
			res.ReplacementCreated = true
			res.ReplacementPatientID = repl.ID
		}

		// 6. Point both users at the right records
		if err := tx.Users().SetActivePatient(ctx, newOwner.ID, &patient.ID, now); err != nil {
			return err
		}
		if original.ActivePatientID != nil && *original.ActivePatientID == patient.ID {
			next, err := s.redirectTarget(ctx, tx, original.ID, res.ReplacementPatientID)
			if err != nil {
				return err
			}
			if err := tx.Users().SetActivePatient(ctx, original.ID, next, now); err != nil {
				return err
			}
		}

		// 7. The new owner no longer needs a share on their own record
		if sh, err := tx.Shares().GetActiveShare(ctx, patient.ID, newOwner.ID); err == nil {
			if err := tx.Shares().DeactivateShare(ctx, sh.ID, now); err != nil {
				return err
			}
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		// 8. Original owner keeps edit access
		share, err := upsertShare(ctx, tx.Shares(), domain.PatientShare{
			ID:               idx.NewAt(now).String(),
			PatientID:        patient.ID,
			SharedByUserID:   newOwner.ID,
			SharedWithUserID: original.ID,
			PermissionLevel:  domain.PermissionEdit,
		}, now)
		if err != nil {
			return err
		}
		res.EditShareGranted = true
		res.EditShareID = share.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			err = fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		log.Error("ownership transfer failed", slog.Any("error", err))
		return TransferResult{}, err
	}

	log.Info("patient ownership transferred",
		slog.String("original_owner_id", res.OriginalOwnerID),
		slog.Bool("replacement_created", res.ReplacementCreated),
	)
	return res, nil
}

// redirectTarget picks the original owner's next active patient: the
// replacement if there is one, else any record they still own.
func (s *TransferService) redirectTarget(ctx context.Context, tx store.Tx, ownerID, replacementID string) (*string, error) {
	if replacementID != "" {
		return &replacementID, nil
	}
	remaining, err := tx.Patients().ListPatientsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		return nil, nil
	}
	return &remaining[0].ID, nil
}
