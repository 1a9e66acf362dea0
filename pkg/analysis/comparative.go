package analysis

import (
	"strings"

	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// DefaultComparativeMetrics are the metrics compared when the request does
// not name any.
var DefaultComparativeMetrics = []string{"total_medicare_payments", "payment_per_beneficiary"}

// ComparativeParams configure the cross-cutting comparison view.
type ComparativeParams struct {
	// CompareBy selects the grouping dimension.
	CompareBy model.CompareDimension
	// Metrics is the ordered list of metric columns to analyze.
	Metrics []string
}

// ComparativeInsights generates findings comparing provider types or states
// across several metrics: pairwise correlations, per-metric leaders and
// spread, bounded outlier reporting, and one global efficiency comparison.
func (g *Generator) ComparativeInsights(t *model.Table, params ComparativeParams) *InsightSet {
	if t.IsEmpty() {
		return errorOnly("No data available for comparative analysis.")
	}
	if params.CompareBy == "" {
		params.CompareBy = model.CompareProviderType
	}
	metrics := params.Metrics
	if len(metrics) == 0 {
		metrics = DefaultComparativeMetrics
	}

	categoryCol, ok := ResolveColumn(t, string(params.CompareBy))
	if !ok {
		return errorOnly("Comparison column '" + string(params.CompareBy) + "' not found in comparative data.")
	}
	debug.Log("comparative insights: compare_by=%s resolved to %q", params.CompareBy, categoryCol)

	set := &InsightSet{}
	set.define(
		CategoryErrors,
		CategoryCorrelations,
		CategoryMetricInsights,
		CategoryDistributionPatterns,
		CategoryAnomalies,
		CategoryEfficiency,
		CategoryRecommendations,
	)

	// Drop metrics the table does not carry, recording them as a data
	// issue. Analysis continues with whatever remains.
	resolved := make([]string, 0, len(metrics))
	var missing []string
	for _, m := range metrics {
		if col, ok := ResolveColumn(t, m); ok {
			resolved = append(resolved, col)
		} else {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		set.add(CategoryErrors, "Metrics %s not found in comparative data.", strings.Join(missing, ", "))
		if len(resolved) == 0 {
			return set
		}
	}
	metrics = resolved

	strong := StrongCorrelations(PairwiseCorrelation(t, metrics), g.thresholds.StrongCorrelation)
	for _, p := range strong {
		set.add(CategoryCorrelations,
			"Strong **%s correlation** (%.2f) between **%s** and **%s**.",
			correlationDirection(p.R), p.R, model.ColumnLabel(p.ColA), model.ColumnLabel(p.ColB))
	}

	for _, metric := range metrics {
		g.comparativeMetric(set, t, categoryCol, metric)
	}

	bestCategory := g.comparativeEfficiency(set, t, categoryCol)

	// Recommendations derive from which categories got populated, in fixed
	// priority order. Terminal fallbacks are added afterwards so they never
	// count as findings here.
	if set.Has(CategoryAnomalies) {
		set.add(CategoryRecommendations,
			"Audit flagged outliers to assess potential fraud or operational issues.")
	}
	if set.Has(CategoryCorrelations) {
		set.add(CategoryRecommendations,
			"Use strong metric correlations to optimize care delivery and payment models.")
	}
	if set.Has(CategoryMetricInsights) {
		set.add(CategoryRecommendations,
			"Benchmark high-performing categories to inform targeted interventions.")
	}
	if set.Has(CategoryDistributionPatterns) {
		set.add(CategoryRecommendations,
			"Reduce operational inconsistencies by enforcing standard billing protocols for %s across all %ss with excessive variability.",
			model.ColumnLabel(metrics[0]), params.CompareBy.Label())
	}
	if bestCategory != "" {
		set.add(CategoryRecommendations,
			"Investigate practices of **%s** for scalable cost-saving strategies.", bestCategory)
	}

	if !set.Has(CategoryCorrelations) {
		set.add(CategoryCorrelations, "No significant correlations found between the selected metrics.")
	}
	if !set.Has(CategoryRecommendations) {
		set.add(CategoryRecommendations, "No specific recommendations available for the selected data.")
	}
	return set
}

// comparativeMetric analyzes a single metric: leader gap, variability flag,
// and bounded outlier reporting.
func (g *Generator) comparativeMetric(set *InsightSet, t *model.Table, categoryCol, metric string) {
	label := model.ColumnLabel(metric)

	top, bottom, err := RankExtremes(t, metric, true)
	if err != nil {
		return
	}
	topVal, bottomVal := top[metric].AsFloat(), bottom[metric].AsFloat()
	if pct, gapErr := percentGap(topVal, bottomVal); gapErr == nil {
		set.add(CategoryMetricInsights,
			"**%s** leads in %s (%s), %s greater than **%s** (%s).",
			top[categoryCol].AsString(), label, currency(topVal),
			percent(pct), bottom[categoryCol].AsString(), currency(bottomVal))
	} else {
		set.add(CategoryMetricInsights,
			"**%s** leads in %s (%s); **%s** reports %s, so the relative gap is undefined.",
			top[categoryCol].AsString(), label, currency(topVal),
			bottom[categoryCol].AsString(), currency(bottomVal))
	}

	if cv, _, cvErr := CoefficientOfVariation(t, metric, g.thresholds); cvErr == nil {
		if cv > g.thresholds.ComparativeCVFlag {
			set.add(CategoryDistributionPatterns,
				"High variability in **%s** (CV: %s) suggests inconsistent performance.", label, percent(cv))
		}
	} else {
		set.add(CategoryErrors, "Variability of %s is undefined: its mean is zero.", label)
	}

	outliers, outErr := ZScoreOutliers(t, metric, g.thresholds.ZScore)
	if outErr != nil {
		if outErr == ErrZeroVariance {
			set.add(CategoryAnomalies, "No variation detected for %s due to zero variance.", label)
		}
		return
	}
	// Report only when a handful of rows are flagged: a longer list means
	// the spread itself is wide, which the CV line already covers.
	if len(outliers) == 0 || len(outliers) > g.thresholds.OutlierReportCap {
		return
	}
	for _, o := range outliers {
		set.add(CategoryAnomalies,
			"**%s** is an outlier for %s, %.1f standard deviations %s the mean.",
			o.Row[categoryCol].AsString(), label, absFloat(o.Z), aboveBelow(o.Z))
	}
}

// comparativeEfficiency adds the global cost-per-beneficiary comparison.
// Returns the best performer's name when a real result was computed, so the
// recommendation referencing it is only emitted then; the category itself
// always ends up non-empty via the explicit fallback.
func (g *Generator) comparativeEfficiency(set *InsightSet, t *model.Table, categoryCol string) string {
	payCol, okPay := ResolveColumn(t, "total_medicare_payments")
	benCol, okBen := ResolveColumn(t, "total_beneficiaries")
	if okPay && okBen {
		if best, worst, err := EfficiencyRatio(t, payCol, benCol); err == nil {
			set.add(CategoryEfficiency,
				"**%s** has the best cost efficiency (%s per beneficiary), while **%s** is least efficient (%s per beneficiary).",
				best.Row[categoryCol].AsString(), currency(best.Ratio),
				worst.Row[categoryCol].AsString(), currency(worst.Ratio))
			return best.Row[categoryCol].AsString()
		}
	}
	set.add(CategoryEfficiency, "Efficiency insights could not be generated due to missing metrics.")
	return ""
}

func correlationDirection(r float64) string {
	if r > 0 {
		return "positive"
	}
	return "negative"
}
