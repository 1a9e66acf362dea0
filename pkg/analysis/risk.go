package analysis

import (
	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// DefaultRiskLimit caps the risk view row count when no limit is given.
const DefaultRiskLimit = 25

// RiskParams configure the risk insight generation. Filtering and limiting
// happen upstream in the datasource; the parameters are carried here so the
// generated set can be cached per request shape.
type RiskParams struct {
	ProviderTypes model.ProviderTypeFilter
	Limit         int
}

// RiskInsights generates findings for the high-risk provider view. The
// input table holds per-provider rows already ordered by per-service
// payment, highest first.
func (g *Generator) RiskInsights(t *model.Table, params RiskParams) *InsightSet {
	if t.IsEmpty() {
		return errorOnly("No data available for risk analysis.")
	}
	debug.Log("risk insights: %d rows, filter=%s limit=%d", t.Len(), params.ProviderTypes, params.Limit)

	cols, missing := resolveAll(t,
		"npi", "provider_type", "total_standardized_payment", "payment_per_service")
	if len(missing) > 0 {
		debug.Log("risk insights: unresolved columns %v", missing)
		return errorOnly("Required columns missing in risk analysis data.")
	}
	npiCol := cols["npi"]
	typeCol := cols["provider_type"]
	payCol := cols["total_standardized_payment"]
	ppsCol := cols["payment_per_service"]

	set := &InsightSet{}
	set.define(
		CategoryKeyFindings,
		CategoryRiskPatterns,
		CategorySeverity,
		CategoryFinancialImpact,
		CategoryRecommendations,
		CategoryErrors,
	)

	// The first row is the top risk candidate: upstream orders by
	// per-service payment descending.
	top := t.Rows[0]
	topPPS := top[ppsCol].AsFloat()
	medPPS := median(t.Column(ppsCol))
	if pct, err := PercentOfMedian(topPPS, medPPS); err == nil {
		set.add(CategoryKeyFindings,
			"**Provider %s** (%s) has the highest per-service payment at **%s**, which is **%s above the median**. This flags it as a primary fraud risk candidate.",
			top[npiCol].AsString(), top[typeCol].AsString(), currency(topPPS), percent(pct))
	} else {
		set.add(CategoryKeyFindings,
			"**Provider %s** (%s) has the highest per-service payment at **%s**; the group median is zero, so the relative uplift is undefined.",
			top[npiCol].AsString(), top[typeCol].AsString(), currency(topPPS))
	}

	domType, domCount := dominantValue(t, typeCol)
	set.add(CategoryRiskPatterns,
		"**%s** providers comprise **%s** of high-risk cases, suggesting concentrated risk exposure.",
		domType, percent(float64(domCount)/float64(t.Len())*100))

	severe := 0
	cutoff := g.thresholds.SevereMedianMultiple * medPPS
	for _, r := range t.Rows {
		if r[ppsCol].AsFloat() > cutoff {
			severe++
		}
	}
	if severe > 0 {
		set.add(CategorySeverity,
			"**%d** providers have payment per service more than %gx the median, indicating potential severe cases for immediate investigation.",
			severe, g.thresholds.SevereMedianMultiple)
	}

	g.riskFinancialImpact(set, t, payCol)

	set.add(CategoryRecommendations,
		"Flag **%s** (%s) for immediate audit due to anomalous payment patterns.",
		top[npiCol].AsString(), top[typeCol].AsString())
	set.add(CategoryRecommendations,
		"Initiate targeted review of **%s** providers to investigate structural billing risks.",
		domType)

	return set
}

// riskFinancialImpact reports the standardized-payment share of the first
// three rows, which are the highest-risk providers by construction.
func (g *Generator) riskFinancialImpact(set *InsightSet, t *model.Table, payCol string) {
	var total, top3 float64
	for i, r := range t.Rows {
		v := r[payCol].AsFloat()
		total += v
		if i < 3 {
			top3 += v
		}
	}
	if total == 0 {
		set.add(CategoryErrors,
			"Financial impact is undefined: total standardized payment across the group is zero.")
		return
	}
	set.add(CategoryFinancialImpact,
		"The top 3 high-risk providers account for %s (%s) of total payments among the high-risk group.",
		currency(top3), percent(top3/total*100))
}

// dominantValue returns the most frequent value in a column and its count.
// Ties resolve to the value that appears first in the table.
func dominantValue(t *model.Table, col string) (string, int) {
	counts := make(map[string]int, t.Len())
	var order []string
	for _, r := range t.Rows {
		v := r[col].AsString()
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, bestCount
}
