package analysis

import (
	"fmt"

	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// DefaultGeographicMetric is the metric the geographic view ranks states by.
const DefaultGeographicMetric = "payment_per_beneficiary"

// regionNames fixes the iteration order so regional high/low ties resolve
// deterministically.
var regionNames = []string{"Northeast", "Midwest", "South", "West"}

// regionStates maps census region to member state abbreviations. Immutable,
// process-wide.
var regionStates = map[string][]string{
	"Northeast": {"ME", "NH", "VT", "MA", "RI", "CT", "NY", "NJ", "PA"},
	"Midwest":   {"OH", "MI", "IN", "IL", "WI", "MN", "IA", "MO", "ND", "SD", "NE", "KS"},
	"South":     {"DE", "MD", "DC", "VA", "WV", "NC", "SC", "GA", "FL", "KY", "TN", "AL", "MS", "AR", "LA", "OK", "TX"},
	"West":      {"MT", "ID", "WY", "CO", "NM", "AZ", "UT", "NV", "WA", "OR", "CA", "AK", "HI"},
}

// GeographicParams configure the geographic distribution insight generation.
type GeographicParams struct {
	// Metric is the column states are ranked and compared by.
	Metric string
}

// GeographicInsights generates findings for the state-level view: the
// top/bottom state gap, regional averages, spread classification, outliers,
// and derived recommendations.
func (g *Generator) GeographicInsights(t *model.Table, params GeographicParams) *InsightSet {
	if t.IsEmpty() {
		return errorOnly("No data available for geographic analysis.")
	}
	if params.Metric == "" {
		params.Metric = DefaultGeographicMetric
	}

	stateCol, ok := ResolveColumn(t, "state")
	if !ok {
		return errorOnly("State column not found in geographic data.")
	}
	metricCol, ok := ResolveColumn(t, params.Metric)
	if !ok {
		return errorOnly(fmt.Sprintf("Metric '%s' not found in geographic data.", params.Metric))
	}

	set := &InsightSet{}
	set.define(
		CategoryKeyFindings,
		CategoryRegionalPatterns,
		CategoryDistributionPatterns,
		CategoryAnomalies,
		CategoryRecommendations,
		CategoryErrors,
	)

	metricLabel := model.ColumnLabel(metricCol)
	top, bottom, err := RankExtremes(t, metricCol, true)
	if err != nil {
		// Unreachable after the emptiness check, but keep the guard.
		return errorOnly("No data available for geographic analysis.")
	}
	topVal, bottomVal := top[metricCol].AsFloat(), bottom[metricCol].AsFloat()
	if pct, perr := percentGap(topVal, bottomVal); perr == nil {
		set.add(CategoryKeyFindings,
			"**%s** has the highest %s (%s), %s above **%s** (%s).",
			top[stateCol].AsString(), metricLabel, currency(topVal),
			percent(pct), bottom[stateCol].AsString(), currency(bottomVal))
	} else {
		set.add(CategoryKeyFindings,
			"**%s** has the highest %s (%s); **%s** reports %s, so the relative gap is undefined.",
			top[stateCol].AsString(), metricLabel, currency(topVal),
			bottom[stateCol].AsString(), currency(bottomVal))
	}

	g.regionalAverages(set, t, stateCol, metricCol)

	cv, band, cvErr := CoefficientOfVariation(t, metricCol, g.thresholds)
	if cvErr != nil {
		set.add(CategoryErrors,
			"Variability of %s is undefined: the mean across states is zero.", metricLabel)
	} else {
		set.add(CategoryDistributionPatterns,
			"%s variability in %s across states (CV = %s).", bandTitle(band), metricLabel, percent(cv))
	}

	g.appendOutliers(set, t, metricCol, stateCol, geographicOutlierPhrasing)

	if set.Has(CategoryAnomalies) {
		set.add(CategoryRecommendations,
			"Focus compliance audits on states with significantly higher than average payments.")
	}
	set.add(CategoryRecommendations,
		"Investigate the underlying factors behind the %s disparities between %s and %s.",
		metricLabel, top[stateCol].AsString(), bottom[stateCol].AsString())

	return set
}

var geographicOutlierPhrasing = outlierPhrasing{
	detected: "**%d** states show statistically significant deviation.",
	zeroVar:  "No variation detected for %s across states due to zero variance.",
	// The geographic view stays quiet when nothing is flagged; the CV line
	// already describes the spread.
	none: "",
}

// regionalAverages reports the highest and lowest regional mean over the
// fixed region map. Regions with no matching state are skipped.
func (g *Generator) regionalAverages(set *InsightSet, t *model.Table, stateCol, metricCol string) {
	byState := make(map[string]float64, t.Len())
	for _, r := range t.Rows {
		byState[r[stateCol].AsString()] = r[metricCol].AsFloat()
	}

	var high, low string
	var highAvg, lowAvg float64
	matched := 0
	for _, region := range regionNames {
		var sum float64
		n := 0
		for _, st := range regionStates[region] {
			if v, ok := byState[st]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}
		avg := sum / float64(n)
		debug.Log("region %s: %d states, avg %.2f", region, n, avg)
		if matched == 0 || avg > highAvg {
			high, highAvg = region, avg
		}
		if matched == 0 || avg < lowAvg {
			low, lowAvg = region, avg
		}
		matched++
	}
	if matched == 0 {
		return
	}
	set.add(CategoryRegionalPatterns,
		"**%s** has the highest regional average (%s); **%s** has the lowest (%s).",
		high, currency(highAvg), low, currency(lowAvg))
}

// percentGap is PercentOfMedian generalized to any base value: how far top
// sits above base, in percent.
func percentGap(top, base float64) (float64, error) {
	if base == 0 {
		return 0, ErrUndefinedRatio
	}
	return (top/base - 1) * 100, nil
}

func bandTitle(b VariabilityBand) string {
	s := string(b)
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
