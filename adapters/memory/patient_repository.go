// Package memory provides the in-process repositories used when no database
// is configured, and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"ecgrisk/domain/core"
	"ecgrisk/domain/patient"
	"ecgrisk/internal/errors"
)

// PatientRepository keeps cases in a map.
type PatientRepository struct {
	mu   sync.RWMutex
	byID map[core.PatientID]patient.Patient
}

// NewPatientRepository returns a repository seeded with cases.
func NewPatientRepository(seed ...patient.Patient) *PatientRepository {
	r := &PatientRepository{byID: make(map[core.PatientID]patient.Patient, len(seed))}
	for _, p := range seed {
		r.byID[p.ID] = p
	}
	return r
}

func (r *PatientRepository) List(ctx context.Context) ([]patient.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]patient.Patient, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PatientRepository) Get(ctx context.Context, id core.PatientID) (*patient.Patient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	p, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("patient")
	}
	return &p, nil
}

func (r *PatientRepository) Upsert(ctx context.Context, p *patient.Patient) error {
	if err := p.Validate(); err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	r.mu.Lock()
	r.byID[p.ID] = *p
	r.mu.Unlock()
	return nil
}
