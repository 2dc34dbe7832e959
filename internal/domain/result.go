package domain

import "time"

// ResultStatus is the outcome of one domain worker run.
type ResultStatus string

const (
	// ResultSuccess means at least one document yielded fields.
	ResultSuccess ResultStatus = "success"
	// ResultNoData means the domain partition holds no matching records.
	ResultNoData ResultStatus = "no_data"
	// ResultError means every candidate document failed extraction.
	ResultError ResultStatus = "error"
)

// Citation names the file and domain a field value came from.
type Citation struct {
	File   string `json:"file"`
	Domain string `json:"domain"`
}

// Field is one extracted field with full source attribution.
type Field struct {
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	Material  string     `json:"material,omitempty"`
	Batch     string     `json:"batch,omitempty"`
	Citations []Citation `json:"citations"`
}

// ExtractionNote records a single document's extraction failure. It never
// cascades to the whole domain result when another candidate succeeded.
type ExtractionNote struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
}

// DomainResult is the typed payload a domain worker hands back.
type DomainResult struct {
	Domain    string           `json:"domain"`
	Status    ResultStatus     `json:"status"`
	Documents []string         `json:"documents,omitempty"`
	Fields    []Field          `json:"fields,omitempty"`
	Notes     []ExtractionNote `json:"notes,omitempty"`
}

// ConflictValue is one side of a contradiction.
type ConflictValue struct {
	Value    string   `json:"value"`
	Citation Citation `json:"citation"`
}

// Conflict records the same logical field reported with differing values by
// two or more sources. Never auto-resolved.
type Conflict struct {
	Field  string          `json:"field"`
	Values []ConflictValue `json:"values"`
}

// Gap names a required domain that produced no usable data, with its reason.
type Gap struct {
	Domain string    `json:"domain"`
	State  TaskState `json:"state"`
	Reason string    `json:"reason"`
}

// Section is one report section for a domain that returned data.
type Section struct {
	Domain  string   `json:"domain"`
	Fields  []Field  `json:"fields"`
	Sources []string `json:"sources"`
}

// AggregatedResult is the finalized synthesis of all terminal domain tasks.
// It is produced exactly once, after every required task is terminal, and
// never contains a field absent from all domain results.
type AggregatedResult struct {
	RequestID   string     `json:"request_id"`
	Query       string     `json:"query"`
	Sections    []Section  `json:"sections"`
	Conflicts   []Conflict `json:"conflicts,omitempty"`
	Gaps        []Gap      `json:"gaps,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}
