// Package index implements the document resolution index: a canonical
// mapping from semantic query terms to physical document locations, tolerant
// of per-batch naming drift. The index is read-mostly: lookups take the
// read side of a single-writer lock, rebuilds take exclusive access.
package index

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/metrics"
	"github.com/kailas-cloud/crossdex/internal/registry"
)

// Index serves ranked lookups over canonical document records.
type Index struct {
	mu      sync.RWMutex
	records map[string]domain.DocumentRecord
	incons  []domain.Inconsistency
	builtAt time.Time
	ready   bool
}

// New creates an empty index. It is not ready until Replace or LoadSnapshot.
func New() *Index {
	return &Index{records: make(map[string]domain.DocumentRecord)}
}

// Ready reports whether the index holds a loaded mapping.
func (x *Index) Ready() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.ready
}

// Len returns the number of canonical records.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.records)
}

// Replace installs a freshly built mapping, discarding the previous one.
// Rebuilding twice from an unchanged source set yields an identical mapping.
func (x *Index) Replace(records map[string]domain.DocumentRecord, incons []domain.Inconsistency) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.records = records
	x.incons = incons
	x.builtAt = time.Now().UTC()
	x.ready = true

	metrics.IndexRecords.Set(float64(len(records)))
	metrics.IndexInconsistenciesTotal.Add(float64(len(incons)))
}

// Merge folds newly discovered records into the existing mapping without
// invalidating existing entries. Every location a colliding record carries,
// its own alternates included, is retained as an alternate on the existing
// entry and recorded as an inconsistency.
func (x *Index) Merge(records map[string]domain.DocumentRecord, incons []domain.Inconsistency) {
	x.mu.Lock()
	defer x.mu.Unlock()

	seen := make(map[string]bool, len(x.incons))
	for _, inc := range x.incons {
		seen[inc.Key.String()] = true
	}
	var newIncons []domain.Inconsistency
	for _, inc := range incons {
		if seen[inc.Key.String()] {
			continue
		}
		newIncons = append(newIncons, inc)
	}
	for id, rec := range records {
		existing, ok := x.records[id]
		if !ok {
			x.records[id] = rec
			continue
		}
		var added []string
		for _, loc := range append([]string{rec.Location}, rec.Alternates...) {
			if loc == existing.Location || contains(existing.Alternates, loc) {
				continue
			}
			existing.Alternates = append(existing.Alternates, loc)
			added = append(added, loc)
		}
		if len(added) == 0 {
			continue
		}
		x.records[id] = existing
		newIncons = append(newIncons, domain.Inconsistency{
			Key:       existing.Key,
			Locations: append([]string{existing.Location}, added...),
		})
	}
	x.incons = append(x.incons, newIncons...)
	x.builtAt = time.Now().UTC()
	x.ready = true

	metrics.IndexRecords.Set(float64(len(x.records)))
	metrics.IndexInconsistenciesTotal.Add(float64(len(newIncons)))
}

// Inconsistencies returns the duplicate canonical key reports.
func (x *Index) Inconsistencies() []domain.Inconsistency {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]domain.Inconsistency(nil), x.incons...)
}

// Lookup returns every record matching the query, scoped to one domain
// partition when scope is non-empty, ranked by the deterministic scoring
// tuple: alias exact match > keyword overlap > batch-id match > fuzzy
// filename distance > recency. Ties break on canonical key order, so equal
// inputs always yield equal output order.
func (x *Index) Lookup(query, scope string, limit int) []domain.Candidate {
	x.mu.RLock()
	defer x.mu.RUnlock()

	label := scope
	if label == "" {
		label = "all"
	}
	metrics.IndexLookupsTotal.WithLabelValues(label).Inc()

	norm := registry.Normalize(query)
	tokens := strings.Fields(norm)
	queryMaterials := materialsIn(norm)

	var out []domain.Candidate
	for _, rec := range x.records {
		if scope != "" && rec.Domain != scope {
			continue
		}
		// A query that names known materials is scoped to them; records for
		// a different material never qualify, however strong the kind match.
		if len(queryMaterials) > 0 && rec.Key.Material != "" && !contains(queryMaterials, rec.Key.Material) {
			continue
		}

		score := scoreRecord(rec, norm, tokens)
		if !qualifies(score) {
			continue
		}
		out = append(out, domain.Candidate{Record: rec, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[j].Score.Less(out[i].Score) {
			return true
		}
		if out[i].Score.Less(out[j].Score) {
			return false
		}
		return out[i].Record.Key.String() < out[j].Record.Key.String()
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Batches enumerates the batch ids present in the index, sorted.
func (x *Index) Batches() []string {
	return x.enumerate(func(r domain.DocumentRecord) string { return r.Key.Batch })
}

// Materials enumerates the materials present in the index, sorted.
func (x *Index) Materials() []string {
	return x.enumerate(func(r domain.DocumentRecord) string { return r.Key.Material })
}

func (x *Index) enumerate(pick func(domain.DocumentRecord) string) []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := map[string]struct{}{}
	var out []string
	for _, rec := range x.records {
		v := pick(rec)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// scoreRecord computes the ranking tuple for one record against a query.
func scoreRecord(rec domain.DocumentRecord, norm string, tokens []string) domain.Score {
	s := domain.Score{ModTime: rec.ModTime}

	for _, a := range rec.Aliases {
		if containsPhrase(norm, a) {
			s.AliasExact = true
			break
		}
	}
	for _, k := range rec.Keywords {
		if containsPhrase(norm, k) {
			s.KeywordOverlap++
		}
	}
	if rec.Key.Batch != "" && containsPhrase(norm, rec.Key.Batch) {
		s.BatchMatch = true
	}

	base := filepath.Base(rec.Location)
	for _, tok := range tokens {
		if len(tok) < 4 {
			continue
		}
		if m := fuzzy.Find(tok, []string{base}); len(m) > 0 && m[0].Score > s.Fuzzy {
			s.Fuzzy = m[0].Score
		}
	}
	return s
}

func qualifies(s domain.Score) bool {
	return s.AliasExact || s.KeywordOverlap > 0 || s.BatchMatch || s.Fuzzy > 0
}

// containsPhrase checks a word-boundary phrase match in normalized text.
func containsPhrase(norm, term string) bool {
	t := registry.Normalize(term)
	if t == "" {
		return false
	}
	return strings.Contains(" "+norm+" ", " "+t+" ")
}

// materialsIn returns lexicon materials mentioned in the normalized query.
func materialsIn(norm string) []string {
	var out []string
	for _, m := range materialLexicon {
		if containsPhrase(norm, m) {
			out = append(out, m)
		}
	}
	return out
}
