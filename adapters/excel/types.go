package excel

// RawRowData represents a row of raw data as header -> cell text
type RawRowData map[string]string

// ExcelData represents the complete tabular dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// Patient catalog columns. Only id and name are required.
const (
	ColID         = "id"
	ColName       = "name"
	ColAge        = "age"
	ColSex        = "sex"
	ColLVEF       = "lvef"
	ColRisk       = "risk"
	ColSignalSeed = "signal_seed"
	ColNotes      = "notes"
)
