package analysis

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// Default view parameters for the provider distribution analysis.
const (
	DefaultProviderSortBy = "total_medicare_payments"
	DefaultProviderLimit  = 15
)

// ProviderParams configure the provider distribution insight generation.
type ProviderParams struct {
	// SortBy is the metric column the view is ranked by.
	SortBy string
	// Limit truncates the table to the top N provider types before
	// analysis. Truncation is idempotent: re-running with the same limit
	// changes nothing.
	Limit int
}

func (p ProviderParams) withDefaults() ProviderParams {
	if p.SortBy == "" {
		p.SortBy = DefaultProviderSortBy
	}
	if p.Limit <= 0 {
		p.Limit = DefaultProviderLimit
	}
	return p
}

// ProviderInsights generates findings for the provider-type distribution
// view: top-type ranking against the median, concentration, cost
// efficiency, outliers, and derived recommendations.
func (g *Generator) ProviderInsights(t *model.Table, params ProviderParams) *InsightSet {
	if t.IsEmpty() {
		return errorOnly("No data available for provider analysis.")
	}
	params = params.withDefaults()

	sortCol, ok := ResolveColumn(t, params.SortBy)
	if !ok {
		return errorOnly(fmt.Sprintf("Sort column '%s' not found in provider data.", params.SortBy))
	}
	typeCol, ok := ResolveColumn(t, "provider_type")
	if !ok {
		return errorOnly("Provider type column not found in provider data.")
	}

	set := &InsightSet{}
	set.define(
		CategoryKeyFindings,
		CategoryDistributionPatterns,
		CategoryEfficiency,
		CategoryAnomalies,
		CategoryRecommendations,
		CategoryErrors,
	)

	t = t.SortedByDesc(sortCol).Head(params.Limit)
	sortLabel := model.ColumnLabel(sortCol)

	top := t.Rows[0]
	topVal := top[sortCol].AsFloat()
	med := median(t.Column(sortCol))
	if pct, err := PercentOfMedian(topVal, med); err == nil {
		set.add(CategoryKeyFindings,
			"**%s** ranks highest in %s, receiving %s (%s above median).",
			top[typeCol].AsString(), sortLabel, currency(topVal), percent(pct))
	} else {
		// Zero median: the uplift is undefined, report the ranking alone.
		set.add(CategoryKeyFindings,
			"**%s** ranks highest in %s, receiving %s (median is zero, so relative uplift is undefined).",
			top[typeCol].AsString(), sortLabel, currency(topVal))
	}

	topN := g.thresholds.ConcentrationTop
	if share, err := ConcentrationShare(t, sortCol, topN); err == nil {
		set.add(CategoryDistributionPatterns,
			"Top %d provider types account for %s of %s.", topN, percent(share), sortLabel)
	} else if errors.Is(err, ErrUndefinedRatio) {
		set.add(CategoryDistributionPatterns,
			"Concentration for %s is undefined: the column total is zero.", sortLabel)
	}

	g.providerEfficiency(set, t, typeCol)
	flagged := g.appendOutliers(set, t, sortCol, typeCol, providerOutlierPhrasing)

	set.add(CategoryRecommendations,
		"Investigate high reimbursements to **%s** for cost justification.", top[typeCol].AsString())
	if set.Has(CategoryAnomalies) {
		set.add(CategoryRecommendations,
			"Flag and audit outlier provider types for compliance review.")
	}
	debug.Log("provider insights: %d outliers flagged on %s", flagged, sortCol)
	return set
}

// providerEfficiency adds the most/least cost-efficient provider types when
// both payment and beneficiary totals are present.
func (g *Generator) providerEfficiency(set *InsightSet, t *model.Table, typeCol string) {
	payCol, okPay := ResolveColumn(t, "total_medicare_payments")
	benCol, okBen := ResolveColumn(t, "total_beneficiaries")
	if !okPay || !okBen {
		return
	}
	best, worst, err := EfficiencyRatio(t, payCol, benCol)
	if err != nil {
		set.add(CategoryErrors,
			"Cost efficiency is undefined: no provider type has a nonzero beneficiary count.")
		return
	}
	set.add(CategoryEfficiency, "Most efficient: **%s** (%s per beneficiary).",
		best.Row[typeCol].AsString(), currency(best.Ratio))
	set.add(CategoryEfficiency, "Least efficient: **%s** (%s per beneficiary).",
		worst.Row[typeCol].AsString(), currency(worst.Ratio))
}

// outlierPhrasing controls the anomaly sentences per view.
type outlierPhrasing struct {
	detected   string // takes the outlier count
	zeroVar    string // takes the column label
	none       string // takes the column label; empty string skips the line
	entityNoun string
}

var providerOutlierPhrasing = outlierPhrasing{
	detected: "Detected %d provider type(s) with statistically significant deviations.",
	zeroVar:  "No variation detected for %s due to zero variance.",
	none:     "No significant anomalies detected for %s.",
}

// appendOutliers runs z-score detection on a column and appends the
// anomalies narrative. Returns the number of rows flagged. The zero-variance
// notice is mandatory behavior, not logging.
func (g *Generator) appendOutliers(set *InsightSet, t *model.Table, col, nameCol string, phrasing outlierPhrasing) int {
	label := model.ColumnLabel(col)
	outliers, err := ZScoreOutliers(t, col, g.thresholds.ZScore)
	if err != nil {
		if errors.Is(err, ErrZeroVariance) {
			set.add(CategoryAnomalies, phrasing.zeroVar, label)
		}
		return 0
	}
	if len(outliers) == 0 {
		if phrasing.none != "" {
			set.add(CategoryAnomalies, phrasing.none, label)
		}
		return 0
	}
	if phrasing.detected != "" {
		set.add(CategoryAnomalies, phrasing.detected, len(outliers))
	}
	for _, o := range outliers {
		set.add(CategoryAnomalies, "**%s** is %.1f standard deviations %s the mean.",
			o.Row[nameCol].AsString(), absFloat(o.Z), aboveBelow(o.Z))
	}
	return len(outliers)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func aboveBelow(z float64) string {
	if z > 0 {
		return "above"
	}
	return "below"
}
