package crossdex

import (
	"time"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// Report is the synthesized answer to one query: a section per domain that
// returned data, every contradiction left visible, and a gap entry for every
// domain that produced nothing usable.
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

// Conflict is the same logical field reported with differing values. Both
// sides stay cited; crossdex never picks a winner.
type Conflict struct {
	Field  string          `json:"field"`
	Values []ConflictValue `json:"values"`
}

// ConflictValue is one side of a contradiction.
type ConflictValue struct {
	Value    string   `json:"value"`
	Citation Citation `json:"citation"`
}

// Gap names a domain that produced no usable data, with its reason.
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
	Key       string   `json:"key"`
	Locations []string `json:"locations"`
}

func fromAggregated(res *domain.AggregatedResult) *Report {
	rep := &Report{
		RequestID:   res.RequestID,
		Query:       res.Query,
		Sections:    make([]Section, len(res.Sections)),
		Warnings:    append([]string(nil), res.Warnings...),
		GeneratedAt: res.GeneratedAt,
	}
	for i, s := range res.Sections {
		rep.Sections[i] = Section{
			Domain:  s.Domain,
			Fields:  fromFields(s.Fields),
			Sources: append([]string(nil), s.Sources...),
		}
	}
	for _, c := range res.Conflicts {
		vals := make([]ConflictValue, len(c.Values))
		for i, v := range c.Values {
			vals[i] = ConflictValue{Value: v.Value, Citation: Citation(v.Citation)}
		}
		rep.Conflicts = append(rep.Conflicts, Conflict{Field: c.Field, Values: vals})
	}
	for _, g := range res.Gaps {
		rep.Gaps = append(rep.Gaps, Gap{Domain: g.Domain, State: string(g.State), Reason: g.Reason})
	}
	return rep
}

func fromFields(fields []domain.Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		cits := make([]Citation, len(f.Citations))
		for j, c := range f.Citations {
			cits[j] = Citation(c)
		}
		out[i] = Field{
			Name:      f.Name,
			Value:     f.Value,
			Material:  f.Material,
			Batch:     f.Batch,
			Citations: cits,
		}
	}
	return out
}

func toAggregated(rep *Report) *domain.AggregatedResult {
	res := &domain.AggregatedResult{
		RequestID:   rep.RequestID,
		Query:       rep.Query,
		Sections:    make([]domain.Section, len(rep.Sections)),
		Warnings:    append([]string(nil), rep.Warnings...),
		GeneratedAt: rep.GeneratedAt,
	}
	for i, s := range rep.Sections {
		res.Sections[i] = domain.Section{
			Domain:  s.Domain,
			Fields:  toFields(s.Fields),
			Sources: append([]string(nil), s.Sources...),
		}
	}
	for _, c := range rep.Conflicts {
		vals := make([]domain.ConflictValue, len(c.Values))
		for i, v := range c.Values {
			vals[i] = domain.ConflictValue{Value: v.Value, Citation: domain.Citation(v.Citation)}
		}
		res.Conflicts = append(res.Conflicts, domain.Conflict{Field: c.Field, Values: vals})
	}
	for _, g := range rep.Gaps {
		res.Gaps = append(res.Gaps, domain.Gap{
			Domain: g.Domain,
			State:  domain.TaskState(g.State),
			Reason: g.Reason,
		})
	}
	return res
}

func toFields(fields []Field) []domain.Field {
	out := make([]domain.Field, len(fields))
	for i, f := range fields {
		cits := make([]domain.Citation, len(f.Citations))
		for j, c := range f.Citations {
			cits[j] = domain.Citation(c)
		}
		out[i] = domain.Field{
			Name:      f.Name,
			Value:     f.Value,
			Material:  f.Material,
			Batch:     f.Batch,
			Citations: cits,
		}
	}
	return out
}
