package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"

	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
	"ecgrisk/internal/errors"
)

// PatientRepository implements ports.PatientRepository for PostgreSQL
type PatientRepository struct {
	db *sqlx.DB
}

// NewPatientRepository creates a new PostgreSQL patient repository
func NewPatientRepository(db *sqlx.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

const patientColumns = `id, name, age, sex, lvef, label, risk, signal_seed, notes, created_at`

// List returns all cases ordered by ID
func (r *PatientRepository) List(ctx context.Context) ([]patient.Patient, error) {
	var out []patient.Patient
	if err := r.db.SelectContext(ctx, &out, `SELECT `+patientColumns+` FROM patients ORDER BY id`); err != nil {
		return nil, errors.DatabaseError("failed to list patients", err)
	}
	return out, nil
}

// Get returns one case or NOT_FOUND
func (r *PatientRepository) Get(ctx context.Context, id core.PatientID) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.GetContext(ctx, &p, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id.String())
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("patient")
		}
		return nil, errors.DatabaseError("failed to get patient", err)
	}
	return &p, nil
}

// Upsert inserts or replaces a case
func (r *PatientRepository) Upsert(ctx context.Context, p *patient.Patient) error {
	if err := p.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES (:id, :name, :age, :sex, :lvef, :label, :risk, :signal_seed, :notes, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			sex = EXCLUDED.sex,
			lvef = EXCLUDED.lvef,
			label = EXCLUDED.label,
			risk = EXCLUDED.risk,
			signal_seed = EXCLUDED.signal_seed,
			notes = EXCLUDED.notes`, p)
	if err != nil {
		return errors.DatabaseError("failed to upsert patient", err)
	}
	return nil
}

// Seed upserts every case, used on first start.
func (r *PatientRepository) Seed(ctx context.Context, cases []patient.Patient) error {
	for i := range cases {
		if err := r.Upsert(ctx, &cases[i]); err != nil {
			return errors.Wrapf(err, "failed to seed patient %s", cases[i].ID)
		}
	}
	return nil
}
