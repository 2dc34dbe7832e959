// Package report implements the aggregator: the only component that sees
// every domain result. It synthesizes terminal tasks into sections, surfaces
// contradictions as explicit conflicts, and names every domain that produced
// no usable data. It never invents a field absent from all results.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/metrics"
	"github.com/kailas-cloud/crossdex/internal/registry"
)

// Service aggregates terminal domain tasks into the final result.
type Service struct{}

// New creates an aggregator service.
func New() *Service {
	return &Service{}
}

// Aggregate synthesizes the request's task table. Identical values for the
// same logical field are deduplicated with their citations merged; differing
// values are reported as a conflict with all sides cited, never resolved by
// picking one.
func (s *Service) Aggregate(req *domain.Request) *domain.AggregatedResult {
	out := &domain.AggregatedResult{
		RequestID:   req.ID,
		Query:       req.Text,
		Warnings:    append([]string(nil), req.Warnings...),
		GeneratedAt: time.Now().UTC(),
	}

	tracker := newConflictTracker()

	for _, task := range req.Tasks {
		switch task.State {
		case domain.TaskCompleted:
			res := task.Result
			if res.Status == domain.ResultError {
				out.Gaps = append(out.Gaps, domain.Gap{
					Domain: task.Domain,
					State:  task.State,
					Reason: "every candidate document failed extraction",
				})
			} else {
				out.Sections = append(out.Sections, buildSection(task.Domain, res, tracker))
			}
			for _, note := range res.Notes {
				out.Warnings = append(out.Warnings,
					fmt.Sprintf("%s: %s: %s", task.Domain, note.Location, note.Reason))
			}
		case domain.TaskNoData:
			out.Gaps = append(out.Gaps, domain.Gap{
				Domain: task.Domain,
				State:  task.State,
				Reason: "domain holds no matching records",
			})
		case domain.TaskTimedOut:
			out.Gaps = append(out.Gaps, domain.Gap{
				Domain: task.Domain,
				State:  task.State,
				Reason: "domain did not answer within the bounded wait",
			})
		case domain.TaskCancelled:
			out.Gaps = append(out.Gaps, domain.Gap{
				Domain: task.Domain,
				State:  task.State,
				Reason: "request cancelled before the domain answered",
			})
		default:
			// Non-terminal tasks only occur when aggregating a cancelled
			// request persisted mid-flight.
			out.Gaps = append(out.Gaps, domain.Gap{
				Domain: task.Domain,
				State:  task.State,
				Reason: "domain never reached a terminal state",
			})
		}
	}

	out.Conflicts = tracker.conflicts()
	metrics.ConflictsTotal.Add(float64(len(out.Conflicts)))
	return out
}

// buildSection deduplicates a domain result's fields: identical values for
// the same logical field fold into one entry with merged citations.
func buildSection(domainID string, res *domain.DomainResult, tracker *conflictTracker) domain.Section {
	sec := domain.Section{Domain: domainID, Sources: append([]string(nil), res.Documents...)}

	byIdentity := map[string]int{}
	for _, f := range res.Fields {
		id := fieldIdentity(f) + "|" + registry.Normalize(f.Value)
		if i, ok := byIdentity[id]; ok {
			sec.Fields[i].Citations = mergeCitations(sec.Fields[i].Citations, f.Citations)
		} else {
			byIdentity[id] = len(sec.Fields)
			sec.Fields = append(sec.Fields, f)
		}
		tracker.observe(f)
	}
	return sec
}

// fieldIdentity is the logical field key: normalized name, material, batch.
// "Assay" for aspirin batch ASP-25-001 and "assay" for batch ASP-25-002 are
// different fields and never conflict with each other.
func fieldIdentity(f domain.Field) string {
	return registry.Normalize(f.Name) + "|" + f.Material + "|" + f.Batch
}

// conflictTracker groups observed values by logical field across all domains.
type conflictTracker struct {
	order  []string
	fields map[string]*fieldValues
}

type fieldValues struct {
	name   string
	order  []string
	values map[string]domain.ConflictValue
}

func newConflictTracker() *conflictTracker {
	return &conflictTracker{fields: map[string]*fieldValues{}}
}

func (t *conflictTracker) observe(f domain.Field) {
	id := fieldIdentity(f)
	fv, ok := t.fields[id]
	if !ok {
		fv = &fieldValues{name: f.Name, values: map[string]domain.ConflictValue{}}
		t.fields[id] = fv
		t.order = append(t.order, id)
	}

	norm := registry.Normalize(f.Value)
	if _, seen := fv.values[norm]; seen {
		return
	}
	cv := domain.ConflictValue{Value: f.Value}
	if len(f.Citations) > 0 {
		cv.Citation = f.Citations[0]
	}
	fv.values[norm] = cv
	fv.order = append(fv.order, norm)
}

// conflicts returns every field observed with two or more distinct values,
// in first-observation order of both fields and values.
func (t *conflictTracker) conflicts() []domain.Conflict {
	var out []domain.Conflict
	for _, id := range t.order {
		fv := t.fields[id]
		if len(fv.order) < 2 {
			continue
		}
		c := domain.Conflict{Field: fv.name}
		for _, norm := range fv.order {
			c.Values = append(c.Values, fv.values[norm])
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// mergeCitations appends citations not already present.
func mergeCitations(dst, src []domain.Citation) []domain.Citation {
	for _, c := range src {
		found := false
		for _, d := range dst {
			if d == c {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, c)
		}
	}
	return dst
}
