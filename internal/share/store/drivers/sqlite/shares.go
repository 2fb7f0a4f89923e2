package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
)

const shareColumns = `id, patient_id, shared_by_user_id, shared_with_user_id, permission_level,
	is_active, expires_at, custom_permissions, invitation_id, created_at, updated_at`

type sharesRepo struct {
	db dbtx
}

func scanShare(row interface{ Scan(...any) error }) (domain.PatientShare, error) {
	var (
		s                    domain.PatientShare
		level                string
		active               int
		expiresAt            sql.NullString
		custom               sql.NullString
		invitationID         sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	err = row.Scan(
		&s.ID, &s.PatientID, &s.SharedByUserID, &s.SharedWithUserID, &level,
		&active, &expiresAt, &custom, &invitationID, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.PatientShare{}, mapNotFound(err)
	}
	s.PermissionLevel = domain.PermissionLevel(level)
	s.IsActive = active != 0
	s.InvitationID = mapNullStringPtr(invitationID)
	if s.ExpiresAt, err = decodeNullTime(expiresAt); err != nil {
		return domain.PatientShare{}, err
	}
	if s.CustomPermissions, err = decodeJSONMap(custom); err != nil {
		return domain.PatientShare{}, err
	}
	if s.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.PatientShare{}, err
	}
	if s.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return domain.PatientShare{}, err
	}
	return s, nil
}

func (r *sharesRepo) list(ctx context.Context, query string, args ...any) ([]domain.PatientShare, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PatientShare
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sharesRepo) CreateShare(ctx context.Context, s domain.PatientShare) error {
	custom, err := encodeJSONMap(s.CustomPermissions)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO patient_shares (`+shareColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.PatientID, s.SharedByUserID, s.SharedWithUserID, string(s.PermissionLevel),
		boolToInt(s.IsActive), encodeOptionalTime(s.ExpiresAt), custom,
		mapOptionalString(s.InvitationID), encodeTime(s.CreatedAt), encodeTime(s.UpdatedAt),
	)
	return mapWriteErr(err)
}

func (r *sharesRepo) GetShareByID(ctx context.Context, id string) (domain.PatientShare, error) {
	return scanShare(r.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM patient_shares WHERE id = ?`, id))
}

func (r *sharesRepo) GetActiveShare(ctx context.Context, patientID, sharedWithUserID string) (domain.PatientShare, error) {
	return scanShare(r.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE patient_id = ? AND shared_with_user_id = ? AND is_active = 1`,
		patientID, sharedWithUserID))
}

func (r *sharesRepo) GetLatestShare(ctx context.Context, patientID, sharedWithUserID string) (domain.PatientShare, error) {
	return scanShare(r.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE patient_id = ? AND shared_with_user_id = ?
		ORDER BY is_active DESC, updated_at DESC, id DESC
		LIMIT 1`,
		patientID, sharedWithUserID))
}

func (r *sharesRepo) GetActiveSharesForPatients(
	ctx context.Context,
	patientIDs []string,
	sharedWithUserID string,
) ([]domain.PatientShare, error) {
	if len(patientIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(patientIDs)+1)
	args = append(args, sharedWithUserID)
	for _, id := range patientIDs {
		args = append(args, id)
	}
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE shared_with_user_id = ? AND is_active = 1
		AND patient_id IN (`+placeholders(len(patientIDs))+`)`,
		args...)
}

func (r *sharesRepo) ListActiveSharesByInvitation(ctx context.Context, invitationID string) ([]domain.PatientShare, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE invitation_id = ? AND is_active = 1 ORDER BY created_at, id`,
		invitationID)
}

func (r *sharesRepo) ListActiveSharesByPatient(ctx context.Context, patientID string) ([]domain.PatientShare, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE patient_id = ? AND is_active = 1 ORDER BY created_at, id`,
		patientID)
}

func (r *sharesRepo) ListActiveSharesForUser(ctx context.Context, sharedWithUserID string) ([]domain.PatientShare, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE shared_with_user_id = ? AND is_active = 1 ORDER BY created_at, id`,
		sharedWithUserID)
}

func (r *sharesRepo) UpdateShare(ctx context.Context, s domain.PatientShare) error {
	custom, err := encodeJSONMap(s.CustomPermissions)
	if err != nil {
		return err
	}
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE patient_shares
		SET permission_level = ?, expires_at = ?, custom_permissions = ?, updated_at = ?
		WHERE id = ?`,
		string(s.PermissionLevel), encodeOptionalTime(s.ExpiresAt), custom,
		encodeTime(s.UpdatedAt), s.ID,
	))
}

func (r *sharesRepo) ReactivateShare(ctx context.Context, s domain.PatientShare) error {
	custom, err := encodeJSONMap(s.CustomPermissions)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE patient_shares
		SET is_active = 1, shared_by_user_id = ?, permission_level = ?, expires_at = ?,
			custom_permissions = ?, invitation_id = ?, updated_at = ?
		WHERE id = ? AND is_active = 0`,
		s.SharedByUserID, string(s.PermissionLevel), encodeOptionalTime(s.ExpiresAt), custom,
		mapOptionalString(s.InvitationID), encodeTime(s.UpdatedAt), s.ID,
	)
	return expectOne(res, mapWriteErr(err))
}

func (r *sharesRepo) DeactivateShare(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE patient_shares SET is_active = 0, updated_at = ? WHERE id = ? AND is_active = 1`,
		encodeTime(at), id,
	))
}

func (r *sharesRepo) DeactivateExpiredShares(ctx context.Context, now time.Time) (int, error) {
	ts := encodeTime(now)
	res, err := r.db.ExecContext(ctx,
		`UPDATE patient_shares SET is_active = 0, updated_at = ?
		WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at <= ?`,
		ts, ts,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
