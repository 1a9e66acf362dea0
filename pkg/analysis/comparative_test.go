package analysis

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/claimlens/pkg/model"
)

// comparativeTable builds grouped rows in the shape the comparative query
// returns: one row per provider type with both default metrics plus the
// beneficiary totals backing the efficiency comparison.
func comparativeTable(rows ...[4]any) *model.Table {
	t := model.NewTable("provider_type", "total_medicare_payments",
		"payment_per_beneficiary", "total_beneficiaries")
	for _, r := range rows {
		t.Append(model.Row{
			"provider_type":           model.String(r[0].(string)),
			"total_medicare_payments": model.Float(r[1].(float64)),
			"payment_per_beneficiary": model.Float(r[2].(float64)),
			"total_beneficiaries":     model.Float(r[3].(float64)),
		})
	}
	return t
}

func TestComparativeInsights_Empty(t *testing.T) {
	set := NewDefaultGenerator().ComparativeInsights(model.NewTable(), ComparativeParams{})

	errs := set.Lines(CategoryErrors)
	if len(errs) != 1 || errs[0] != "No data available for comparative analysis." {
		t.Fatalf("errors = %v", errs)
	}
}

func TestComparativeInsights_MissingComparisonColumn(t *testing.T) {
	tbl := model.NewTable("total_medicare_payments")
	tbl.Append(model.Row{"total_medicare_payments": model.Float(1)})

	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{})

	errs := set.Lines(CategoryErrors)
	if len(errs) != 1 || errs[0] != "Comparison column 'provider_type' not found in comparative data." {
		t.Errorf("errors = %v", errs)
	}
}

func TestComparativeInsights_MissingMetricsReported(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"A", 400.0, 40.0, 10.0},
		[4]any{"B", 200.0, 20.0, 10.0},
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{
		Metrics: []string{"total_medicare_payments", "bogus_one", "bogus_two"},
	})

	want := "Metrics bogus_one, bogus_two not found in comparative data."
	if !containsLine(set.Lines(CategoryErrors), want) {
		t.Errorf("errors = %v, want %q", set.Lines(CategoryErrors), want)
	}
	// Analysis continues with the metric that resolved.
	if !set.Has(CategoryMetricInsights) {
		t.Error("metric insights missing despite one resolvable metric")
	}
}

func TestComparativeInsights_AllMetricsMissingStops(t *testing.T) {
	tbl := comparativeTable([4]any{"A", 400.0, 40.0, 10.0})

	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{
		Metrics: []string{"bogus"},
	})

	if !containsLine(set.Lines(CategoryErrors), "Metrics bogus not found in comparative data.") {
		t.Errorf("errors = %v", set.Lines(CategoryErrors))
	}
	if set.Has(CategoryMetricInsights) || set.Has(CategoryCorrelations) {
		t.Error("analysis continued with no resolvable metrics")
	}
}

func TestComparativeInsights_IdenticalMetricsCorrelatePerfectly(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"A", 400.0, 400.0, 10.0},
		[4]any{"B", 200.0, 200.0, 10.0},
		[4]any{"C", 100.0, 100.0, 10.0},
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{})

	want := "Strong **positive correlation** (1.00) between **total medicare payments** and **payment per beneficiary**."
	corr := set.Lines(CategoryCorrelations)
	if len(corr) != 1 || corr[0] != want {
		t.Errorf("correlations = %v\nwant [%s]", corr, want)
	}
}

func TestComparativeInsights_MetricLeaderGap(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"A", 400.0, 40.0, 10.0},
		[4]any{"B", 200.0, 30.0, 10.0},
		[4]any{"D", 100.0, 20.0, 10.0},
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{
		Metrics: []string{"total_medicare_payments"},
	})

	want := "**A** leads in total medicare payments ($400.00), 300.0% greater than **D** ($100.00)."
	if !containsLine(set.Lines(CategoryMetricInsights), want) {
		t.Errorf("metric insights = %v, want %q", set.Lines(CategoryMetricInsights), want)
	}
}

func TestComparativeInsights_HighVariabilityFlag(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"A", 1000.0, 10.0, 10.0},
		[4]any{"B", 10.0, 10.0, 10.0},
		[4]any{"C", 10.0, 10.0, 10.0},
		[4]any{"D", 10.0, 10.0, 10.0},
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{
		Metrics: []string{"total_medicare_payments"},
	})

	found := false
	for _, l := range set.Lines(CategoryDistributionPatterns) {
		if strings.HasPrefix(l, "High variability in **total medicare payments**") {
			found = true
		}
	}
	if !found {
		t.Errorf("distribution = %v, want high-variability flag", set.Lines(CategoryDistributionPatterns))
	}
}

func TestComparativeInsights_ZeroVarianceNotice(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"A", 100.0, 10.0, 10.0},
		[4]any{"B", 100.0, 20.0, 10.0},
		[4]any{"C", 100.0, 30.0, 10.0},
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{
		Metrics: []string{"total_medicare_payments"},
	})

	want := "No variation detected for total medicare payments due to zero variance."
	if !containsLine(set.Lines(CategoryAnomalies), want) {
		t.Errorf("anomalies = %v, want %q", set.Lines(CategoryAnomalies), want)
	}
}

func TestComparativeInsights_Efficiency(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"Lean", 100.0, 10.0, 100.0}, // $1.00 per beneficiary
		[4]any{"Heavy", 500.0, 20.0, 10.0}, // $50.00 per beneficiary
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{})

	want := "**Lean** has the best cost efficiency ($1.00 per beneficiary), while **Heavy** is least efficient ($50.00 per beneficiary)."
	if !containsLine(set.Lines(CategoryEfficiency), want) {
		t.Errorf("efficiency = %v, want %q", set.Lines(CategoryEfficiency), want)
	}
	if !containsLine(set.Lines(CategoryRecommendations),
		"Investigate practices of **Lean** for scalable cost-saving strategies.") {
		t.Errorf("recommendations = %v, want investigate line", set.Lines(CategoryRecommendations))
	}
}

func TestComparativeInsights_EfficiencyFallback(t *testing.T) {
	tbl := model.NewTable("provider_type", "payment_per_service")
	tbl.Append(model.Row{"provider_type": model.String("A"), "payment_per_service": model.Float(10)})
	tbl.Append(model.Row{"provider_type": model.String("B"), "payment_per_service": model.Float(20)})

	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{
		Metrics: []string{"payment_per_service"},
	})

	want := "Efficiency insights could not be generated due to missing metrics."
	if !containsLine(set.Lines(CategoryEfficiency), want) {
		t.Errorf("efficiency = %v, want fallback", set.Lines(CategoryEfficiency))
	}
	for _, l := range set.Lines(CategoryRecommendations) {
		if strings.Contains(l, "Investigate practices of") {
			t.Errorf("investigate recommendation emitted without an efficiency result: %q", l)
		}
	}
}

func TestComparativeInsights_NoCorrelationFallback(t *testing.T) {
	tbl := comparativeTable(
		[4]any{"A", 100.0, 4.0, 10.0},
		[4]any{"B", 200.0, 3.0, 10.0},
		[4]any{"C", 300.0, 5.0, 10.0},
	)
	set := NewDefaultGenerator().ComparativeInsights(tbl, ComparativeParams{})

	want := "No significant correlations found between the selected metrics."
	corr := set.Lines(CategoryCorrelations)
	if len(corr) != 1 || corr[0] != want {
		t.Errorf("correlations = %v, want fallback only", corr)
	}
	// The fallback is terminal: it must not trigger the correlation-driven
	// recommendation.
	for _, l := range set.Lines(CategoryRecommendations) {
		if strings.Contains(l, "strong metric correlations") {
			t.Errorf("correlation recommendation emitted from fallback: %q", l)
		}
	}
}
