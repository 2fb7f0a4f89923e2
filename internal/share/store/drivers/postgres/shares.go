package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/jackc/pgx/v5"
)

const shareColumns = `id, patient_id, shared_by_user_id, shared_with_user_id, permission_level,
	is_active, expires_at, custom_permissions, invitation_id, created_at, updated_at`

type sharesRepo struct {
	db queryable
}

func scanShare(row pgx.Row) (domain.PatientShare, error) {
	var (
		s     domain.PatientShare
		level string
	)
	err := row.Scan(
		&s.ID, &s.PatientID, &s.SharedByUserID, &s.SharedWithUserID, &level,
		&s.IsActive, &s.ExpiresAt, &s.CustomPermissions, &s.InvitationID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return domain.PatientShare{}, mapNotFound(err)
	}
	s.PermissionLevel = domain.PermissionLevel(level)
	s.ExpiresAt = utcPtr(s.ExpiresAt)
	s.CreatedAt = utc(s.CreatedAt)
	s.UpdatedAt = utc(s.UpdatedAt)
	return s, nil
}

func (r *sharesRepo) list(ctx context.Context, query string, args ...any) ([]domain.PatientShare, error) {
	rows, err := r.db.Query(ctx, query, args...)
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
	_, err := r.db.Exec(ctx,
		`INSERT INTO patient_shares (`+shareColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.PatientID, s.SharedByUserID, s.SharedWithUserID, string(s.PermissionLevel),
		s.IsActive, s.ExpiresAt, s.CustomPermissions, s.InvitationID, s.CreatedAt, s.UpdatedAt,
	)
	return mapWriteErr(err)
}

func (r *sharesRepo) GetShareByID(ctx context.Context, id string) (domain.PatientShare, error) {
	return scanShare(r.db.QueryRow(ctx, `SELECT `+shareColumns+` FROM patient_shares WHERE id = $1`, id))
}

func (r *sharesRepo) GetActiveShare(ctx context.Context, patientID, sharedWithUserID string) (domain.PatientShare, error) {
	return scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE patient_id = $1 AND shared_with_user_id = $2 AND is_active`,
		patientID, sharedWithUserID))
}

func (r *sharesRepo) GetLatestShare(ctx context.Context, patientID, sharedWithUserID string) (domain.PatientShare, error) {
	return scanShare(r.db.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE patient_id = $1 AND shared_with_user_id = $2
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
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE shared_with_user_id = $1 AND is_active AND patient_id = ANY($2)`,
		sharedWithUserID, patientIDs)
}

func (r *sharesRepo) ListActiveSharesByInvitation(ctx context.Context, invitationID string) ([]domain.PatientShare, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE invitation_id = $1 AND is_active ORDER BY created_at, id`,
		invitationID)
}

func (r *sharesRepo) ListActiveSharesByPatient(ctx context.Context, patientID string) ([]domain.PatientShare, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE patient_id = $1 AND is_active ORDER BY created_at, id`,
		patientID)
}

func (r *sharesRepo) ListActiveSharesForUser(ctx context.Context, sharedWithUserID string) ([]domain.PatientShare, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM patient_shares
		WHERE shared_with_user_id = $1 AND is_active ORDER BY created_at, id`,
		sharedWithUserID)
}

func (r *sharesRepo) UpdateShare(ctx context.Context, s domain.PatientShare) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE patient_shares
		SET permission_level = $1, expires_at = $2, custom_permissions = $3, updated_at = $4
		WHERE id = $5`,
		string(s.PermissionLevel), s.ExpiresAt, s.CustomPermissions, s.UpdatedAt, s.ID,
	))
}

func (r *sharesRepo) ReactivateShare(ctx context.Context, s domain.PatientShare) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE patient_shares
		SET is_active = TRUE, shared_by_user_id = $1, permission_level = $2, expires_at = $3,
			custom_permissions = $4, invitation_id = $5, updated_at = $6
		WHERE id = $7 AND NOT is_active`,
		s.SharedByUserID, string(s.PermissionLevel), s.ExpiresAt, s.CustomPermissions,
		s.InvitationID, s.UpdatedAt, s.ID,
	))
}

func (r *sharesRepo) DeactivateShare(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE patient_shares SET is_active = FALSE, updated_at = $1 WHERE id = $2 AND is_active`,
		at, id,
	))
}

func (r *sharesRepo) DeactivateExpiredShares(ctx context.Context, now time.Time) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE patient_shares SET is_active = FALSE, updated_at = $1
		WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
