package analysis

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/claimlens/pkg/model"
)

// riskTable builds per-provider rows in the shape the risk query returns,
// already ordered by payment per service descending.
func riskTable(rows ...[4]any) *model.Table {
	t := model.NewTable("Rndrng_NPI", "Rndrng_Prvdr_Type",
		"total_standardized_payment", "payment_per_service")
	for _, r := range rows {
		t.Append(model.Row{
			"Rndrng_NPI":                 model.String(r[0].(string)),
			"Rndrng_Prvdr_Type":          model.String(r[1].(string)),
			"total_standardized_payment": model.Float(r[2].(float64)),
			"payment_per_service":        model.Float(r[3].(float64)),
		})
	}
	return t
}

func TestRiskInsights_Empty(t *testing.T) {
	set := NewDefaultGenerator().RiskInsights(model.NewTable(), RiskParams{})

	errs := set.Lines(CategoryErrors)
	if len(errs) != 1 || errs[0] != "No data available for risk analysis." {
		t.Fatalf("errors = %v", errs)
	}
}

func TestRiskInsights_MissingColumns(t *testing.T) {
	tbl := model.NewTable("Rndrng_NPI", "payment_per_service")
	tbl.Append(model.Row{
		"Rndrng_NPI":          model.String("123"),
		"payment_per_service": model.Float(10),
	})

	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	errs := set.Lines(CategoryErrors)
	if len(errs) != 1 || errs[0] != "Required columns missing in risk analysis data." {
		t.Errorf("errors = %v, want exactly the missing-columns message", errs)
	}
	if set.Lines(CategoryKeyFindings) != nil {
		t.Error("key findings should stay undefined when columns are missing")
	}
}

func TestRiskInsights_TopCandidate(t *testing.T) {
	tbl := riskTable(
		[4]any{"1234567890", "Cardiology", 400.0, 40.0},
		[4]any{"2222222222", "Cardiology", 300.0, 10.0},
		[4]any{"3333333333", "Internal Medicine", 200.0, 10.0},
		[4]any{"4444444444", "Family Practice", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	want := "**Provider 1234567890** (Cardiology) has the highest per-service payment at **$40.00**, which is **300.0% above the median**. This flags it as a primary fraud risk candidate."
	findings := set.Lines(CategoryKeyFindings)
	if len(findings) != 1 || findings[0] != want {
		t.Errorf("key findings = %v\nwant [%s]", findings, want)
	}
}

func TestRiskInsights_DominantType(t *testing.T) {
	tbl := riskTable(
		[4]any{"1", "Cardiology", 100.0, 40.0},
		[4]any{"2", "Cardiology", 100.0, 30.0},
		[4]any{"3", "Internal Medicine", 100.0, 20.0},
		[4]any{"4", "Family Practice", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	want := "**Cardiology** providers comprise **50.0%** of high-risk cases, suggesting concentrated risk exposure."
	if !containsLine(set.Lines(CategoryRiskPatterns), want) {
		t.Errorf("risk patterns = %v, want %q", set.Lines(CategoryRiskPatterns), want)
	}
}

func TestRiskInsights_DominantTypeTieBreaksOnFirstAppearance(t *testing.T) {
	tbl := riskTable(
		[4]any{"1", "Oncology", 100.0, 40.0},
		[4]any{"2", "Cardiology", 100.0, 30.0},
		[4]any{"3", "Oncology", 100.0, 20.0},
		[4]any{"4", "Cardiology", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	lines := set.Lines(CategoryRiskPatterns)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "**Oncology**") {
		t.Errorf("risk patterns = %v, want Oncology (first appearance) to win the tie", lines)
	}
}

func TestRiskInsights_SevereCount(t *testing.T) {
	// Median per-service payment is 10; only the 40 exceeds 3x that.
	tbl := riskTable(
		[4]any{"1", "Cardiology", 100.0, 40.0},
		[4]any{"2", "Cardiology", 100.0, 10.0},
		[4]any{"3", "Cardiology", 100.0, 10.0},
		[4]any{"4", "Cardiology", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	want := "**1** providers have payment per service more than 3x the median, indicating potential severe cases for immediate investigation."
	sev := set.Lines(CategorySeverity)
	if len(sev) != 1 || sev[0] != want {
		t.Errorf("severity = %v\nwant [%s]", sev, want)
	}
}

func TestRiskInsights_NoSevereCases(t *testing.T) {
	tbl := riskTable(
		[4]any{"1", "Cardiology", 100.0, 12.0},
		[4]any{"2", "Cardiology", 100.0, 10.0},
		[4]any{"3", "Cardiology", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	if sev := set.Lines(CategorySeverity); len(sev) != 0 {
		t.Errorf("severity = %v, want defined but empty", sev)
	}
	if set.Lines(CategorySeverity) == nil {
		t.Error("severity should be defined for the risk view")
	}
}

func TestRiskInsights_FinancialImpact(t *testing.T) {
	tbl := riskTable(
		[4]any{"1", "Cardiology", 400.0, 40.0},
		[4]any{"2", "Cardiology", 300.0, 30.0},
		[4]any{"3", "Cardiology", 200.0, 20.0},
		[4]any{"4", "Cardiology", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	want := "The top 3 high-risk providers account for $900.00 (90.0%) of total payments among the high-risk group."
	fin := set.Lines(CategoryFinancialImpact)
	if len(fin) != 1 || fin[0] != want {
		t.Errorf("financial impact = %v\nwant [%s]", fin, want)
	}
}

func TestRiskInsights_ZeroTotalPaymentsIsDataIssue(t *testing.T) {
	tbl := riskTable(
		[4]any{"1", "Cardiology", 0.0, 40.0},
		[4]any{"2", "Cardiology", 0.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	want := "Financial impact is undefined: total standardized payment across the group is zero."
	if !containsLine(set.Lines(CategoryErrors), want) {
		t.Errorf("errors = %v, want %q", set.Lines(CategoryErrors), want)
	}
	if set.Has(CategoryFinancialImpact) {
		t.Errorf("financial impact = %v, want none", set.Lines(CategoryFinancialImpact))
	}
}

func TestRiskInsights_ZeroMedianUpliftUndefined(t *testing.T) {
	tbl := riskTable(
		[4]any{"1", "Cardiology", 100.0, 40.0},
		[4]any{"2", "Cardiology", 100.0, 0.0},
		[4]any{"3", "Cardiology", 100.0, 0.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	findings := set.Lines(CategoryKeyFindings)
	if len(findings) != 1 || !strings.Contains(findings[0], "the group median is zero") {
		t.Errorf("key findings = %v, want zero-median phrasing", findings)
	}
}

func TestRiskInsights_Recommendations(t *testing.T) {
	tbl := riskTable(
		[4]any{"9876543210", "Oncology", 500.0, 50.0},
		[4]any{"1111111111", "Oncology", 100.0, 10.0},
		[4]any{"2222222222", "Cardiology", 100.0, 10.0},
	)
	set := NewDefaultGenerator().RiskInsights(tbl, RiskParams{})

	recs := set.Lines(CategoryRecommendations)
	if len(recs) != 2 {
		t.Fatalf("recommendations = %v, want 2", recs)
	}
	if recs[0] != "Flag **9876543210** (Oncology) for immediate audit due to anomalous payment patterns." {
		t.Errorf("first recommendation = %q", recs[0])
	}
	if recs[1] != "Initiate targeted review of **Oncology** providers to investigate structural billing risks." {
		t.Errorf("second recommendation = %q", recs[1])
	}
}
