package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
	"github.com/jackc/pgx/v5"
)

const patientColumns = `id, owner_user_id, is_self_record, privacy_level, first_name, last_name,
	birth_date, gender, blood_type, height_cm, weight_kg, address, physician_id,
	created_at, updated_at`

type patientsRepo struct {
	db queryable
}

func scanPatient(row pgx.Row) (domain.Patient, error) {
	var (
		p       domain.Patient
		privacy string
	)
	err := row.Scan(
		&p.ID, &p.OwnerUserID, &p.IsSelfRecord, &privacy, &p.FirstName, &p.LastName,
		&p.BirthDate, &p.Gender, &p.BloodType, &p.HeightCM, &p.WeightKG, &p.Address, &p.PhysicianID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Patient{}, mapNotFound(err)
	}
	p.PrivacyLevel = domain.PrivacyLevel(privacy)
	p.BirthDate = utcPtr(p.BirthDate)
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)
	return p, nil
}

func (r *patientsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Patient, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *patientsRepo) GetPatientByID(ctx context.Context, id string) (domain.Patient, error) {
	return scanPatient(r.db.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
}

func (r *patientsRepo) GetPatientsByIDs(ctx context.Context, ids []string) ([]domain.Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = ANY($1)`, ids)
}

func (r *patientsRepo) ListPatientsByOwner(ctx context.Context, ownerID string) ([]domain.Patient, error) {
	return r.list(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE owner_user_id = $1 ORDER BY created_at, id`,
		ownerID)
}

func (r *patientsRepo) GetSelfRecord(ctx context.Context, ownerID string) (domain.Patient, error) {
	return scanPatient(r.db.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE owner_user_id = $1 AND is_self_record`,
		ownerID))
}

func (r *patientsRepo) CreatePatient(ctx context.Context, p domain.Patient) error {
	privacy := p.PrivacyLevel
	if privacy == "" {
		privacy = domain.PrivacyDefault
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO patients (`+patientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		p.ID, p.OwnerUserID, p.IsSelfRecord, string(privacy), p.FirstName, p.LastName,
		p.BirthDate, p.Gender, p.BloodType, p.HeightCM, p.WeightKG, p.Address, p.PhysicianID,
		p.CreatedAt, p.UpdatedAt,
	)
	return mapWriteErr(err)
}

func (r *patientsRepo) UpdateOwnership(
	ctx context.Context,
	patientID, ownerID string,
	isSelfRecord bool,
	at time.Time,
) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE patients SET owner_user_id = $1, is_self_record = $2, updated_at = $3 WHERE id = $4`,
		ownerID, isSelfRecord, at, patientID,
	))
}

func (r *patientsRepo) SetSelfRecord(ctx context.Context, patientID string, isSelfRecord bool, at time.Time) error {
	return expectOne(r.db.Exec(ctx,
		`UPDATE patients SET is_self_record = $1, updated_at = $2 WHERE id = $3`,
		isSelfRecord, at, patientID,
	))
}
