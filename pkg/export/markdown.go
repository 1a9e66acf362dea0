// Package export renders generated insight sets for the presentation layer:
// markdown documents for terminal or web embedding, JSON for machine
// consumers, and SVG charts.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/claimlens/pkg/analysis"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// FormatMarkdown renders an insight set as a markdown document. Categories
// appear in canonical order under their display names; defined-but-empty
// categories are skipped. A nil or empty set yields a placeholder under the
// title so callers always get something embeddable.
func FormatMarkdown(set *analysis.InsightSet, title string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### %s\n\n", title))

	if set.IsEmpty() {
		sb.WriteString("No insights available for the current data selection.\n")
		return sb.String()
	}

	for _, section := range set.Ordered() {
		if len(section.Lines) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("#### %s\n\n", section.Title))
		for _, line := range section.Lines {
			sb.WriteString("- " + line + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ReportSection pairs a view title with its generated insights.
type ReportSection struct {
	Title string
	Set   *analysis.InsightSet
}

// ReportSummary carries the dataset counts shown at the top of a report.
type ReportSummary struct {
	TotalRecords  int
	ProviderTypes int
	States        int
}

// Report composes the full analysis document: a summary table followed by
// every view's insights.
func Report(title string, summary *ReportSummary, sections []ReportSection) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("*Generated: %s*\n\n", time.Now().Format(time.RFC1123)))

	if summary != nil {
		sb.WriteString("## Summary\n\n")
		sb.WriteString("| Metric | Count |\n|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| **Records** | %d |\n", summary.TotalRecords))
		sb.WriteString(fmt.Sprintf("| Provider types | %d |\n", summary.ProviderTypes))
		sb.WriteString(fmt.Sprintf("| States | %d |\n\n", summary.States))
	}

	for _, s := range sections {
		sb.WriteString(FormatMarkdown(s.Set, s.Title))
		sb.WriteString("\n")
	}
	return sb.String()
}

// TableMarkdown renders an analysis table for report embedding, preserving
// column order.
func TableMarkdown(t *model.Table) string {
	if t.IsEmpty() {
		return "*No data.*\n"
	}
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat("---|", len(t.Columns)) + "\n")
	for _, r := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cells[i] = r[c].AsString()
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}
