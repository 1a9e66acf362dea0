// Package analysis turns aggregated billing tables into categorized
// narrative findings. All generators are pure: same table and parameters in,
// same InsightSet out, no shared state between calls.
package analysis

import (
	"fmt"
	"strings"
)

// Category labels one group of generated findings. Order is significant for
// display; see CategoryOrder.
type Category string

const (
	CategoryKeyFindings          Category = "key_findings"
	CategoryDistributionPatterns Category = "distribution_patterns"
	CategoryRegionalPatterns     Category = "regional_patterns"
	CategoryCorrelations         Category = "correlations"
	CategoryMetricInsights       Category = "metric_insights"
	CategoryRiskPatterns         Category = "risk_patterns"
	CategorySeverity             Category = "severity"
	CategoryFinancialImpact      Category = "financial_impact"
	CategoryEfficiency           Category = "efficiency"
	CategoryAnomalies            Category = "anomalies"
	CategoryRecommendations      Category = "recommendations"
	CategoryErrors               Category = "errors"
)

// CategoryOrder is the canonical display order for insight categories.
var CategoryOrder = []Category{
	CategoryKeyFindings,
	CategoryDistributionPatterns,
	CategoryRegionalPatterns,
	CategoryCorrelations,
	CategoryMetricInsights,
	CategoryRiskPatterns,
	CategorySeverity,
	CategoryFinancialImpact,
	CategoryEfficiency,
	CategoryAnomalies,
	CategoryRecommendations,
	CategoryErrors,
}

var categoryNames = map[Category]string{
	CategoryKeyFindings:          "Key Findings",
	CategoryDistributionPatterns: "Distribution Patterns",
	CategoryRegionalPatterns:     "Regional Patterns",
	CategoryCorrelations:         "Metric Correlations",
	CategoryMetricInsights:       "Metric Analysis",
	CategoryRiskPatterns:         "Risk Patterns",
	CategorySeverity:             "Severity Assessment",
	CategoryFinancialImpact:      "Financial Impact",
	CategoryEfficiency:           "Efficiency Analysis",
	CategoryAnomalies:            "Statistical Anomalies",
	CategoryRecommendations:      "Recommendations",
	CategoryErrors:               "Data Issues",
}

// DisplayName returns the heading text for a category. Unknown categories
// get underscores replaced with spaces and each word capitalized.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// InsightSet holds generated findings grouped by category. It is a fixed
// schema: a category a generator defines is a non-nil (possibly empty)
// slice, a category the generator does not produce stays nil. Within a
// category, insertion order is generation order.
type InsightSet struct {
	KeyFindings          []string `json:"key_findings"`
	DistributionPatterns []string `json:"distribution_patterns"`
	RegionalPatterns     []string `json:"regional_patterns"`
	Correlations         []string `json:"correlations"`
	MetricInsights       []string `json:"metric_insights"`
	RiskPatterns         []string `json:"risk_patterns"`
	Severity             []string `json:"severity"`
	FinancialImpact      []string `json:"financial_impact"`
	Efficiency           []string `json:"efficiency"`
	Anomalies            []string `json:"anomalies"`
	Recommendations      []string `json:"recommendations"`
	Errors               []string `json:"errors"`
}

// bucket returns the slice backing a category, or nil for a category the
// schema does not know.
func (s *InsightSet) bucket(c Category) *[]string {
	switch c {
	case CategoryKeyFindings:
		return &s.KeyFindings
	case CategoryDistributionPatterns:
		return &s.DistributionPatterns
	case CategoryRegionalPatterns:
		return &s.RegionalPatterns
	case CategoryCorrelations:
		return &s.Correlations
	case CategoryMetricInsights:
		return &s.MetricInsights
	case CategoryRiskPatterns:
		return &s.RiskPatterns
	case CategorySeverity:
		return &s.Severity
	case CategoryFinancialImpact:
		return &s.FinancialImpact
	case CategoryEfficiency:
		return &s.Efficiency
	case CategoryAnomalies:
		return &s.Anomalies
	case CategoryRecommendations:
		return &s.Recommendations
	case CategoryErrors:
		return &s.Errors
	}
	return nil
}

// define marks categories as produced by the generator, so they round-trip
// as empty sequences rather than absent keys.
func (s *InsightSet) define(categories ...Category) {
	for _, c := range categories {
		if b := s.bucket(c); b != nil && *b == nil {
			*b = []string{}
		}
	}
}

// add appends a formatted finding to a category.
func (s *InsightSet) add(c Category, format string, args ...any) {
	if b := s.bucket(c); b != nil {
		*b = append(*b, fmt.Sprintf(format, args...))
	}
}

// Lines returns the findings for a category. Nil means the generator did not
// define the category.
func (s *InsightSet) Lines(c Category) []string {
	if s == nil {
		return nil
	}
	if b := s.bucket(c); b != nil {
		return *b
	}
	return nil
}

// Has reports whether a category holds at least one finding.
func (s *InsightSet) Has(c Category) bool {
	return len(s.Lines(c)) > 0
}

// IsEmpty reports whether no category holds any finding.
func (s *InsightSet) IsEmpty() bool {
	if s == nil {
		return true
	}
	for _, c := range CategoryOrder {
		if s.Has(c) {
			return false
		}
	}
	return true
}

// Section pairs a category with its findings for ordered iteration.
type Section struct {
	Category Category
	Title    string
	Lines    []string
}

// Ordered returns the defined categories in canonical display order.
// Categories the generator never defined are omitted; defined-but-empty
// categories are included with zero lines.
func (s *InsightSet) Ordered() []Section {
	if s == nil {
		return nil
	}
	var out []Section
	for _, c := range CategoryOrder {
		if b := s.bucket(c); b != nil && *b != nil {
			out = append(out, Section{Category: c, Title: c.DisplayName(), Lines: *b})
		}
	}
	return out
}

// errorOnly builds the short-circuit InsightSet used when input is missing
// or a required column cannot be resolved.
func errorOnly(message string) *InsightSet {
	s := &InsightSet{}
	s.define(CategoryErrors)
	s.add(CategoryErrors, "%s", message)
	return s
}
