package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
)

const userColumns = `id, username, email, role, active_patient_id, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		role                 string
		activePatient        sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err = row.Scan(&u.ID, &u.Username, &u.Email, &role, &activePatient, &createdAt, &updatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Role = domain.Role(role)
	u.ActivePatientID = mapNullStringPtr(activePatient)
	if u.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.User{}, err
	}
	if u.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, string(role), mapOptionalString(u.ActivePatientID),
		encodeTime(u.CreatedAt), encodeTime(u.UpdatedAt),
	)
	return mapWriteErr(err)
}

func (r *usersRepo) SetActivePatient(ctx context.Context, userID string, patientID *string, at time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET active_patient_id = ?, updated_at = ? WHERE id = ?`,
		mapOptionalString(patientID), encodeTime(at), userID,
	))
}
