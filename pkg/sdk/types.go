package sdk

import "time"

// Request is a submitted query with its per-domain task table.
type Request struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	State     string       `json:"state"`
	Tasks     []DomainTask `json:"tasks"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Warnings  []string     `json:"warnings,omitempty"`
}

// DomainTask is one domain's attempt to answer a sub-query.
type DomainTask struct {
	Domain   string        `json:"domain"`
	SubQuery string        `json:"sub_query"`
	State    string        `json:"state"`
	Result   *DomainResult `json:"result,omitempty"`
}

// DomainResult is the payload a domain worker handed back.
type DomainResult struct {
	Domain    string           `json:"domain"`
	Status    string           `json:"status"`
	Documents []string         `json:"documents,omitempty"`
	Fields    []Field          `json:"fields,omitempty"`
	Notes     []ExtractionNote `json:"notes,omitempty"`
}

// ExtractionNote records one document's extraction failure.
type ExtractionNote struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
}

// Report is the synthesized answer to one query.
type Report struct {
	RequestID   string     `json:"request_id"`
	Query       string     `json:"query"`
	Sections    []Section  `json:"sections"`
	Conflicts   []Conflict `json:"conflicts,omitempty"`
	Gaps        []Gap      `json:"gaps,omitempty"`
	Warnings    []string   `json:"warnings,omitempty"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Section groups the fields one domain contributed.
type Section struct {
	Domain  string   `json:"domain"`
	Fields  []Field  `json:"fields"`
	Sources []string `json:"sources"`
}

// Field is one extracted field with full source attribution.
type Field struct {
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	Material  string     `json:"material,omitempty"`
	Batch     string     `json:"batch,omitempty"`
	Citations []Citation `json:"citations"`
}

// Citation names the file and domain a value came from.
type Citation struct {
	File   string `json:"file"`
	Domain string `json:"domain"`
}

// Conflict is the same logical field reported with differing values.
type Conflict struct {
	Field  string          `json:"field"`
	Values []ConflictValue `json:"values"`
}

// ConflictValue is one side of a contradiction.
type ConflictValue struct {
	Value    string   `json:"value"`
	Citation Citation `json:"citation"`
}

// Gap names a domain that produced no usable data.
type Gap struct {
	Domain string `json:"domain"`
	State  string `json:"state"`
	Reason string `json:"reason"`
}

// RebuildStats summarizes one index rebuild.
type RebuildStats struct {
	Records         int `json:"records"`
	Inconsistencies int `json:"inconsistencies"`
}

// IndexConflict is a canonical key claimed by more than one file.
type IndexConflict struct {
	Key       CanonicalKey `json:"key"`
	Locations []string     `json:"locations"`
}

// CanonicalKey is the (material, kind, batch) triple documents resolve to.
type CanonicalKey struct {
	Material string `json:"material"`
	Kind     string `json:"kind"`
	Batch    string `json:"batch"`
}

// HealthStatus is the aggregated server health.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
