// Package registry implements the domain capability index: a static,
// ordered table mapping aliases and keywords to domain ids. Classification
// is deterministic for an identical input and table, and never fails: an
// unmatched request falls back to the configured default domain.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Capability declares one domain's routing patterns.
type Capability struct {
	Domain   string
	Priority int
	// Aliases are exact terms or phrases (matched on word boundaries) that
	// route to this domain with the highest confidence: "coa", "purchase order".
	Aliases []string
	// Keywords are matched by containment in the normalized request text.
	Keywords []string
}

// Classification is the classifier output: an ordered, non-empty domain set.
type Classification struct {
	// Domains in dispatch order (match tier, then priority, then registration).
	Domains []string
	// Matched lists the terms that selected each domain; used to formulate
	// per-domain sub-queries.
	Matched map[string][]string
	// Fallback is true when no pattern matched and the default domain was used.
	Fallback bool
}

// Registry is the capability table. Registration order is the documented
// tie-break for equal-priority domains.
type Registry struct {
	caps          []Capability
	comprehensive []string
	defaultDomain string
}

// comprehensiveTriggers select every registered domain ("full quality summary").
var comprehensiveTriggers = []string{
	"complete", "full", "all", "everything", "comprehensive", "summary", "overall",
}

// New creates a registry with the given capabilities in registration order.
func New(defaultDomain string, caps ...Capability) (*Registry, error) {
	if len(caps) == 0 {
		return nil, fmt.Errorf("registry requires at least one capability")
	}
	found := false
	for _, c := range caps {
		if c.Domain == defaultDomain {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("default domain %q is not registered", defaultDomain)
	}
	return &Registry{
		caps:          caps,
		comprehensive: comprehensiveTriggers,
		defaultDomain: defaultDomain,
	}, nil
}

// Domains returns all registered domain ids in registration order.
func (r *Registry) Domains() []string {
	out := make([]string, len(r.caps))
	for i, c := range r.caps {
		out[i] = c.Domain
	}
	return out
}

// Known reports whether a domain id is registered.
func (r *Registry) Known(domain string) bool {
	for _, c := range r.caps {
		if c.Domain == domain {
			return true
		}
	}
	return false
}

// matchTier ranks how a capability matched: alias > keyword.
const (
	tierNone    = 0
	tierKeyword = 1
	tierAlias   = 2
)

// Classify maps free text onto required domains. Precedence: exact alias
// match > keyword containment > comprehensive triggers > default domain.
// Ordering of the result is (tier, priority, registration order).
func (r *Registry) Classify(text string) Classification {
	norm := Normalize(text)

	type hit struct {
		cap   Capability
		tier  int
		terms []string
		order int
	}

	var hits []hit
	for i, c := range r.caps {
		h := hit{cap: c, order: i}
		for _, a := range c.Aliases {
			if containsTerm(norm, a) {
				h.tier = tierAlias
				h.terms = append(h.terms, a)
			}
		}
		for _, k := range c.Keywords {
			if containsTerm(norm, k) {
				if h.tier < tierKeyword {
					h.tier = tierKeyword
				}
				h.terms = append(h.terms, k)
			}
		}
		if h.tier > tierNone {
			hits = append(hits, h)
		}
	}

	// Comprehensive triggers pull in every domain; already-matched domains
	// keep their stronger tier and matched terms.
	if trigger := r.comprehensiveTrigger(norm); trigger != "" {
		have := make(map[string]bool, len(hits))
		for _, h := range hits {
			have[h.cap.Domain] = true
		}
		for i, c := range r.caps {
			if !have[c.Domain] {
				hits = append(hits, hit{cap: c, tier: tierKeyword, terms: []string{trigger}, order: i})
			}
		}
	}

	if len(hits) == 0 {
		return Classification{
			Domains:  []string{r.defaultDomain},
			Matched:  map[string][]string{r.defaultDomain: nil},
			Fallback: true,
		}
	}

	// Stable ordering: tier desc, priority desc, registration order asc.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].tier != hits[j].tier {
			return hits[i].tier > hits[j].tier
		}
		if hits[i].cap.Priority != hits[j].cap.Priority {
			return hits[i].cap.Priority > hits[j].cap.Priority
		}
		return hits[i].order < hits[j].order
	})

	out := Classification{Matched: make(map[string][]string, len(hits))}
	for _, h := range hits {
		out.Domains = append(out.Domains, h.cap.Domain)
		out.Matched[h.cap.Domain] = h.terms
	}
	return out
}

// SubQuery formulates the per-domain sub-query text from the matched terms.
func (r *Registry) SubQuery(domain, text string, matched []string) string {
	if len(matched) == 0 {
		return text
	}
	return fmt.Sprintf("%s [%s: %s]", text, domain, strings.Join(matched, ", "))
}

func (r *Registry) comprehensiveTrigger(norm string) string {
	for _, t := range r.comprehensive {
		if containsTerm(norm, t) {
			return t
		}
	}
	return ""
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases text and collapses punctuation to single spaces so
// "PO-2025/046" and "po 2025 046" compare equal.
func Normalize(text string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(text), " "))
}

// containsTerm checks for a word-boundary match of term in normalized text.
// Multi-word terms match as normalized phrases.
func containsTerm(norm, term string) bool {
	t := Normalize(term)
	if t == "" {
		return false
	}
	padded := " " + norm + " "
	return strings.Contains(padded, " "+t+" ")
}
