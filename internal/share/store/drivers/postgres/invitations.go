package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/aussiebroadwan/medshare/internal/share/store"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `id, sent_by_user_id, sent_to_user_id, invitation_type, status, title,
	message, context_data, expires_at, responded_at, response_note, created_at, updated_at`

type invitationsRepo struct {
	db queryable
}

func scanInvitation(row pgx.Row) (domain.Invitation, error) {
	var (
		inv         domain.Invitation
		typ, status string
	)
	err := row.Scan(
		&inv.ID, &inv.SentByUserID, &inv.SentToUserID, &typ, &status, &inv.Title,
		&inv.Message, &inv.Context, &inv.ExpiresAt, &inv.RespondedAt, &inv.ResponseNote,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	inv.Type = domain.InvitationType(typ)
	inv.Status = domain.InvitationStatus(status)
	inv.ExpiresAt = utcPtr(inv.ExpiresAt)
	inv.RespondedAt = utcPtr(inv.RespondedAt)
	inv.CreatedAt = utc(inv.CreatedAt)
	inv.UpdatedAt = utc(inv.UpdatedAt)
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	status := inv.Status
	if status == "" {
		status = domain.StatusPending
	}
	var payload any
	if len(inv.Context) > 0 {
		payload = string(inv.Context)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)`,
		inv.ID, inv.SentByUserID, inv.SentToUserID, string(inv.Type), string(status), inv.Title,
		inv.Message, payload, inv.ExpiresAt, inv.RespondedAt, inv.ResponseNote,
		inv.CreatedAt, inv.UpdatedAt,
	)
	return mapWriteErr(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	return scanInvitation(r.db.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id))
}

func (r *invitationsRepo) ListInvitations(ctx context.Context, f store.InvitationFilter) ([]domain.Invitation, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.SentByUserID != "" {
		where = append(where, "sent_by_user_id = "+arg(f.SentByUserID))
	}
	if f.SentToUserID != "" {
		where = append(where, "sent_to_user_id = "+arg(f.SentToUserID))
	}
	if f.Type != "" {
		where = append(where, "invitation_type = "+arg(string(f.Type)))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if f.ExpiresAtOrBefore != nil {
		where = append(where, "expires_at IS NOT NULL AND expires_at <= "+arg(*f.ExpiresAtOrBefore))
	}

	query := `SELECT ` + invitationColumns + ` FROM invitations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
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
	return scanInvitation(r.db.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		WHERE sent_by_user_id = $1 AND sent_to_user_id = $2
		AND invitation_type = $3 AND status = $4
		AND context_data->>'patient_id' = $5
		AND COALESCE((context_data->>'is_bulk_invite')::boolean, FALSE) = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		sentBy, sentTo, string(domain.TypePatientShare), string(domain.StatusPending), patientID))
}

func (r *invitationsRepo) UpdateInvitationStatus(ctx context.Context, change domain.StatusChange) error {
	err := expectOne(r.db.Exec(ctx,
		`UPDATE invitations
		SET status = $1, responded_at = COALESCE($2, responded_at),
			response_note = CASE WHEN $3::text = '' THEN response_note ELSE $3::text END,
			updated_at = $4
		WHERE id = $5 AND status = $6`,
		string(change.To), change.RespondedAt, change.ResponseNote,
		change.At, change.InvitationID, string(change.From),
	))
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	// Distinguish a missing row from one whose status moved on.
	var exists int
	if qerr := r.db.QueryRow(ctx, `SELECT 1 FROM invitations WHERE id = $1`, change.InvitationID).Scan(&exists); qerr != nil {
		return mapNotFound(qerr)
	}
	return store.ErrConflict
}
