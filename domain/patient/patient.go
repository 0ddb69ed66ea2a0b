package patient

import (
	"fmt"
	"time"

	"ecgrisk/domain/core"
)

// Label is the categorical LVSD outcome shown for a case.
type Label string

const (
	LabelLVSD   Label = "LVSD"
	LabelNormal Label = "Normal"
)

// LVSDThreshold is the LVEF percentage at or below which a case is labelled LVSD.
const LVSDThreshold = 40.0

// Patient is a mock case record. LVEF is stored data, never derived from a signal.
type Patient struct {
	ID         core.PatientID `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	Age        int            `json:"age" db:"age"`
	Sex        string         `json:"sex" db:"sex"`
	LVEF       float64        `json:"lvef" db:"lvef"`
	Label      Label          `json:"label" db:"label"`
	Risk       float64        `json:"risk" db:"risk"`
	SignalSeed int64          `json:"signal_seed" db:"signal_seed"`
	Notes      string         `json:"notes" db:"notes"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// ClassifyLVEF maps an ejection fraction to its label.
func ClassifyLVEF(lvef float64) Label {
	if lvef <= LVSDThreshold {
		return LabelLVSD
	}
	return LabelNormal
}

// Validate checks a record before it is stored.
func (p *Patient) Validate() error {
	if p.ID.String() == "" {
		return fmt.Errorf("patient ID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("patient %s: name is required", p.ID)
	}
	if p.LVEF < 0 || p.LVEF > 100 {
		return fmt.Errorf("patient %s: LVEF %.1f outside [0, 100]", p.ID, p.LVEF)
	}
	if p.Risk < 0 || p.Risk > 1 {
		return fmt.Errorf("patient %s: risk %.2f outside [0, 1]", p.ID, p.Risk)
	}
	return nil
}

var catalogEpoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// Catalog returns the mock cases the dashboard ships with.
func Catalog() []Patient {
	rows := []struct {
		id    string
		name  string
		age   int
		sex   string
		lvef  float64
		risk  float64
		notes string
	}{
		{"pt-001", "Case A", 67, "M", 32, 0.87,
			"**Exertional dyspnoea**, NYHA II.\n\n- Prior anterior MI\n- QRS 128 ms"},
		{"pt-002", "Case B", 54, "F", 58, 0.12,
			"Routine pre-operative screening.\n\n- Sinus rhythm\n- No structural findings"},
		{"pt-003", "Case C", 72, "F", 38, 0.74,
			"Ankle oedema for three weeks.\n\n- Left bundle branch block\n- Elevated NT-proBNP"},
		{"pt-004", "Case D", 45, "M", 61, 0.08,
			"Palpitations, resolved.\n\n- Occasional PVCs"},
		{"pt-005", "Case E", 80, "M", 27, 0.93,
			"_Known ischaemic cardiomyopathy._\n\n- ICD in situ\n- Atrial fibrillation"},
		{"pt-006", "Case F", 61, "F", 47, 0.35,
			"Hypertension follow-up.\n\n- LVH voltage criteria"},
	}

	out := make([]Patient, 0, len(rows))
	for i, r := range rows {
		out = append(out, Patient{
			ID:         core.PatientID(r.id),
			Name:       r.name,
			Age:        r.age,
			Sex:        r.sex,
			LVEF:       r.lvef,
			Label:      ClassifyLVEF(r.lvef),
			Risk:       r.risk,
			SignalSeed: int64(1000 + i),
			Notes:      r.notes,
			CreatedAt:  catalogEpoch.Add(time.Duration(i) * 24 * time.Hour),
		})
	}
	return out
}
