package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/medshare/internal/share/domain"
)

const patientColumns = `id, owner_user_id, is_self_record, privacy_level, first_name, last_name,
	birth_date, gender, blood_type, height_cm, weight_kg, address, physician_id,
	created_at, updated_at`

type patientsRepo struct {
	db dbtx
}

func scanPatient(row interface{ Scan(...any) error }) (domain.Patient, error) {
	var (
		p                    domain.Patient
		isSelf               int
		privacy              string
		birthDate            sql.NullString
		height, weight       sql.NullFloat64
		physician            sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	err = row.Scan(
		&p.ID, &p.OwnerUserID, &isSelf, &privacy, &p.FirstName, &p.LastName,
		&birthDate, &p.Gender, &p.BloodType, &height, &weight, &p.Address, &physician,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Patient{}, mapNotFound(err)
	}
	p.IsSelfRecord = isSelf != 0
	p.PrivacyLevel = domain.PrivacyLevel(privacy)
	p.HeightCM = mapNullFloatPtr(height)
	p.WeightKG = mapNullFloatPtr(weight)
	p.PhysicianID = mapNullStringPtr(physician)
	if p.BirthDate, err = decodeNullTime(birthDate); err != nil {
		return domain.Patient{}, err
	}
	if p.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.Patient{}, err
	}
	if p.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return domain.Patient{}, err
	}
	return p, nil
}

func (r *patientsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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
	return scanPatient(r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = ?`, id))
}

func (r *patientsRepo) GetPatientsByIDs(ctx context.Context, ids []string) ([]domain.Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.list(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id IN (`+placeholders(len(ids))+`)`,
		args...)
}

func (r *patientsRepo) ListPatientsByOwner(ctx context.Context, ownerID string) ([]domain.Patient, error) {
	return r.list(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE owner_user_id = ? ORDER BY created_at, id`,
		ownerID)
}

func (r *patientsRepo) GetSelfRecord(ctx context.Context, ownerID string) (domain.Patient, error) {
	return scanPatient(r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE owner_user_id = ? AND is_self_record = 1`,
		ownerID))
}

func (r *patientsRepo) CreatePatient(ctx context.Context, p domain.Patient) error {
	privacy := p.PrivacyLevel
	if privacy == "" {
		privacy = domain.PrivacyDefault
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO patients (`+patientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerUserID, boolToInt(p.IsSelfRecord), string(privacy), p.FirstName, p.LastName,
		encodeOptionalTime(p.BirthDate), p.Gender, p.BloodType,
		mapOptionalFloat(p.HeightCM), mapOptionalFloat(p.WeightKG), p.Address,
		mapOptionalString(p.PhysicianID),
		encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt),
	)
	return mapWriteErr(err)
}

func (r *patientsRepo) UpdateOwnership(
	ctx context.Context,
	patientID, ownerID string,
	isSelfRecord bool,
	at time.Time,
) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients SET owner_user_id = ?, is_self_record = ?, updated_at = ? WHERE id = ?`,
		ownerID, boolToInt(isSelfRecord), encodeTime(at), patientID,
	)
	return expectOne(res, mapWriteErr(err))
}

func (r *patientsRepo) SetSelfRecord(ctx context.Context, patientID string, isSelfRecord bool, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE patients SET is_self_record = ?, updated_at = ? WHERE id = ?`,
		boolToInt(isSelfRecord), encodeTime(at), patientID,
	)
	return expectOne(res, mapWriteErr(err))
}
