package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, role, active_patient_id, created_at, updated_at`

type usersRepo struct {
	db queryable
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &role, &u.ActivePatientID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Role = domain.Role(role)
	u.CreatedAt = utc(u.CreatedAt)
	u.UpdatedAt = utc(u.UpdatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, string(role), u.ActivePatientID, u.CreatedAt, u.UpdatedAt,
	)
	return mapWriteErr(err)
}

func (r *usersRepo) SetActivePatient(ctx context.Context, userID string, patientID *string, at time.Time) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE users SET active_patient_id = $1, updated_at = $2 WHERE id = $3`,
		patientID, at, userID,
	))
}
