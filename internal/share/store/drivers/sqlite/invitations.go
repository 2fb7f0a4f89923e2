package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
)

const invitationColumns = `id, sent_by_user_id, sent_to_user_id, invitation_type, status, title,
	message, context_data, expires_at, responded_at, response_note, created_at, updated_at`

type invitationsRepo struct {
	db dbtx
}

func scanInvitation(row interface{ Scan(...any) error }) (domain.Invitation, error) {
	var (
		inv                    domain.Invitation
		typ, status            string
		contextData            sql.NullString
		expiresAt, respondedAt sql.NullString
		createdAt, updatedAt   string
		err                    error
	)
	err = row.Scan(
		&inv.ID, &inv.SentByUserID, &inv.SentToUserID, &typ, &status, &inv.Title,
		&inv.Message, &contextData, &expiresAt, &respondedAt, &inv.ResponseNote,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Type = domain.InvitationType(typ)
	inv.Status = domain.InvitationStatus(status)
	if contextData.Valid {
		inv.Context = []byte(contextData.String)
	}
	if inv.ExpiresAt, err = decodeNullTime(expiresAt); err != nil {
		return domain.Invitation{}, err
	}
	if inv.RespondedAt, err = decodeNullTime(respondedAt); err != nil {
		return domain.Invitation{}, err
	}
	if inv.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.Invitation{}, err
	}
	if inv.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return domain.Invitation{}, err
	}
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	var contextData sql.NullString
	if len(inv.Context) > 0 {
		contextData = sql.NullString{String: string(inv.Context), Valid: true}
	}
	status := inv.Status
	if status == "" {
		status = domain.StatusPending
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (`+invitationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.SentByUserID, inv.SentToUserID, string(inv.Type), string(status), inv.Title,
		inv.Message, contextData, encodeOptionalTime(inv.ExpiresAt), encodeOptionalTime(inv.RespondedAt),
		inv.ResponseNote, encodeTime(inv.CreatedAt), encodeTime(inv.UpdatedAt),
	)
	return mapWriteErr(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = ?`, id))
}

func (r *invitationsRepo) ListInvitations(ctx context.Context, f store.InvitationFilter) ([]domain.Invitation, error) {
	var (
		where []string
		args  []any
	)
	if f.SentByUserID != "" {
		where = append(where, "sent_by_user_id = ?")
		args = append(args, f.SentByUserID)
	}
	if f.SentToUserID != "" {
		where = append(where, "sent_to_user_id = ?")
		args = append(args, f.SentToUserID)
	}
	if f.Type != "" {
		where = append(where, "invitation_type = ?")
		args = append(args, string(f.Type))
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if f.ExpiresAtOrBefore != nil {
		where = append(where, "expires_at IS NOT NULL AND expires_at <= ?")
		args = append(args, encodeTime(*f.ExpiresAtOrBefore))
	}

	query := `SELECT ` + invitationColumns + ` FROM invitations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) FindPendingPatientShare(
	ctx context.Context,
	sentBy, sentTo, patientID string,
) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		WHERE sent_by_user_id = ? AND sent_to_user_id = ?
		AND invitation_type = ? AND status = ?
		AND json_extract(context_data, '$.patient_id') = ?
		AND COALESCE(json_extract(context_data, '$.is_bulk_invite'), 0) = 0
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		sentBy, sentTo, string(domain.TypePatientShare), string(domain.StatusPending), patientID))
}

func (r *invitationsRepo) UpdateInvitationStatus(ctx context.Context, change domain.StatusChange) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations
		SET status = ?, responded_at = COALESCE(?, responded_at),
			response_note = CASE WHEN ? = '' THEN response_note ELSE ? END,
			updated_at = ?
		WHERE id = ? AND status = ?`,
		string(change.To), encodeOptionalTime(change.RespondedAt),
		change.ResponseNote, change.ResponseNote,
		encodeTime(change.At), change.InvitationID, string(change.From),
	)
	if err := expectOne(res, err); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		// Distinguish a missing row from one whose status moved on.
		var exists int
		qerr := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM invitations WHERE id = ?`, change.InvitationID).Scan(&exists)
		if qerr != nil {
			return mapNotFound(qerr)
		}
		return store.ErrConflict
	}
	return nil
}
