package domain

import (
	"strings"
	"time"
)

// Kind is a logical document kind, e.g. "certificate_of_analysis".
type Kind string

// Known document kinds. The index derives these from drifting per-batch
// filename conventions; the set is open, pattern rules may emit others.
const (
	KindCertificateOfAnalysis Kind = "certificate_of_analysis"
	KindPurchaseOrder         Kind = "purchase_order"
	KindBatchRecord           Kind = "batch_manufacturing_record"
	KindDeviationReport       Kind = "deviation_report"
	KindTrainingRecord        Kind = "training_record"
	KindSpecification         Kind = "specification"
	KindStabilityReport       Kind = "stability_report"
	KindSOP                   Kind = "standard_operating_procedure"
	KindGoodsReceipt          Kind = "goods_receipt_note"
	KindSafetyDataSheet       Kind = "safety_data_sheet"
	KindGeneric               Kind = "document"
)

// CanonicalKey is the index key: (material, document kind, batch id).
// Components are stored lowercased; empty components are allowed (e.g. an SOP
// has no batch).
type CanonicalKey struct {
	Material string `json:"material"`
	Kind     Kind   `json:"kind"`
	Batch    string `json:"batch"`
}

// NormalKey builds a canonical key with normalized components.
func NormalKey(material string, kind Kind, batch string) CanonicalKey {
	return CanonicalKey{
		Material: strings.ToLower(strings.TrimSpace(material)),
		Kind:     kind,
		Batch:    strings.ToUpper(strings.TrimSpace(batch)),
	}
}

// String renders the key as "material|kind|batch" for storage and sorting.
func (k CanonicalKey) String() string {
	return k.Material + "|" + string(k.Kind) + "|" + k.Batch
}

// DocumentRecord is one indexed document. A canonical key maps to one
// location; duplicates are retained on Alternates and reported as an
// inconsistency rather than silently dropped.
type DocumentRecord struct {
	Key        CanonicalKey `json:"key"`
	Location   string       `json:"location"`
	Domain     string       `json:"domain"`
	Aliases    []string     `json:"aliases,omitempty"`
	Keywords   []string     `json:"keywords,omitempty"`
	ModTime    time.Time    `json:"mod_time"`
	Alternates []string     `json:"alternates,omitempty"`
}

// Inconsistency records two distinct files resolving to the same canonical key.
type Inconsistency struct {
	Key       CanonicalKey `json:"key"`
	Locations []string     `json:"locations"`
}

// Candidate is a ranked lookup hit.
type Candidate struct {
	Record DocumentRecord
	Score  Score
}

// Score is the deterministic ranking tuple for lookups, compared
// lexicographically: alias exact match, keyword overlap, batch match,
// fuzzy filename score, recency. Ties break on canonical key order.
type Score struct {
	AliasExact     bool
	KeywordOverlap int
	BatchMatch     bool
	Fuzzy          int
	ModTime        time.Time
}

// Less reports whether s ranks below other.
func (s Score) Less(other Score) bool {
	if s.AliasExact != other.AliasExact {
		return !s.AliasExact
	}
	if s.KeywordOverlap != other.KeywordOverlap {
		return s.KeywordOverlap < other.KeywordOverlap
	}
	if s.BatchMatch != other.BatchMatch {
		return !s.BatchMatch
	}
	if s.Fuzzy != other.Fuzzy {
		return s.Fuzzy < other.Fuzzy
	}
	return s.ModTime.Before(other.ModTime)
}
