// Package renderer turns an aggregated result into a human-readable report.
package renderer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// Markdown renders aggregated results as a Markdown report.
type Markdown struct{}

// NewMarkdown creates a Markdown renderer.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// Render writes the report: one section per answering domain, then
// conflicts, gaps, and warnings. Sections, conflicts, and gaps keep the
// aggregator's order, so the same result always renders identically.
func (m *Markdown) Render(res *domain.AggregatedResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Query Report\n\n")
	fmt.Fprintf(&b, "**Query:** %s\n\n", res.Query)
	fmt.Fprintf(&b, "**Request:** `%s`\n\n", res.RequestID)
	fmt.Fprintf(&b, "_Generated %s_\n", res.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	for _, sec := range res.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n", strings.ToUpper(sec.Domain))
		if len(sec.Fields) > 0 {
			b.WriteString("| Field | Value | Material | Batch | Source |\n")
			b.WriteString("|-------|-------|----------|-------|--------|\n")
			for _, f := range sec.Fields {
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
					cell(f.Name), cell(f.Value), cell(f.Material), cell(f.Batch), citations(f.Citations))
			}
		}
		if len(sec.Sources) > 0 {
			b.WriteString("\nSources:\n")
			for _, src := range sec.Sources {
				fmt.Fprintf(&b, "- `%s`\n", src)
			}
		}
	}

	if len(res.Conflicts) > 0 {
		b.WriteString("\n## Conflicts\n\n")
		b.WriteString("The following fields were reported with differing values. Both sides are cited; neither is authoritative.\n")
		for _, c := range res.Conflicts {
			fmt.Fprintf(&b, "\n- **%s**\n", c.Field)
			for _, v := range c.Values {
				fmt.Fprintf(&b, "  - %s (`%s`, %s)\n", v.Value, v.Citation.File, v.Citation.Domain)
			}
		}
	}

	if len(res.Gaps) > 0 {
		b.WriteString("\n## Gaps\n\n")
		for _, g := range res.Gaps {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", g.Domain, g.State, g.Reason)
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

// cell escapes pipes so values cannot break the table layout.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}

func citations(cits []domain.Citation) string {
	if len(cits) == 0 {
		return "-"
	}
	parts := make([]string, len(cits))
	for i, c := range cits {
		parts[i] = fmt.Sprintf("`%s`", c.File)
	}
	return strings.Join(parts, ", ")
}
