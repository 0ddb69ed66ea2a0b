package ports

import (
	"context"

	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
)

// PatientRepository defines the interface for patient case storage
type PatientRepository interface {
	// List returns all cases ordered by ID
	List(ctx context.Context) ([]patient.Patient, error)

	// Get returns one case or a NOT_FOUND error
	Get(ctx context.Context, id core.PatientID) (*patient.Patient, error)

	// Upsert inserts or replaces a case
	Upsert(ctx context.Context, p *patient.Patient) error
}
