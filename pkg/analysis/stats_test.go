package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/vanderheijden86/claimlens/pkg/model"
)

func floatTable(col string, vals ...float64) *model.Table {
	t := model.NewTable("name", col)
	for i, v := range vals {
		t.Append(model.Row{
			"name": model.String(string(rune('A' + i))),
			col:    model.Float(v),
		})
	}
	return t
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMedian_EvenLength(t *testing.T) {
	// Even-length input interpolates the two central values.
	if got := median([]float64{1, 2, 3, 4}); !almostEqual(got, 2.5) {
		t.Errorf("median([1 2 3 4]) = %v, want 2.5", got)
	}
}

func TestMedian_OddLength(t *testing.T) {
	if got := median([]float64{5, 1, 3}); !almostEqual(got, 3) {
		t.Errorf("median([5 1 3]) = %v, want 3", got)
	}
}

func TestMedian_Empty(t *testing.T) {
	if got := median(nil); got != 0 {
		t.Errorf("median(nil) = %v, want 0", got)
	}
}

func TestStdDev_SampleDenominator(t *testing.T) {
	// Sample std of [2, 4, 4, 4, 5, 5, 7, 9] is sqrt(32/7).
	got := stdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if !almostEqual(got, want) {
		t.Errorf("stdDev = %v, want %v", got, want)
	}
}

func TestStdDev_SingleValue(t *testing.T) {
	if got := stdDev([]float64{42}); got != 0 {
		t.Errorf("stdDev of one value = %v, want 0", got)
	}
}

func TestRankExtremes(t *testing.T) {
	tbl := floatTable("pay", 10, 50, 30)

	top, bottom, err := RankExtremes(tbl, "pay", true)
	if err != nil {
		t.Fatalf("RankExtremes: %v", err)
	}
	if top["name"].AsString() != "B" {
		t.Errorf("top = %s, want B", top["name"].AsString())
	}
	if bottom["name"].AsString() != "A" {
		t.Errorf("bottom = %s, want A", bottom["name"].AsString())
	}
}

func TestRankExtremes_Empty(t *testing.T) {
	_, _, err := RankExtremes(model.NewTable("pay"), "pay", true)
	if !errors.Is(err, ErrEmptyTable) {
		t.Errorf("err = %v, want ErrEmptyTable", err)
	}
}

func TestRankExtremes_TiesKeepRowOrder(t *testing.T) {
	tbl := floatTable("pay", 5, 5, 5)
	top, bottom, err := RankExtremes(tbl, "pay", true)
	if err != nil {
		t.Fatalf("RankExtremes: %v", err)
	}
	if top["name"].AsString() != "A" || bottom["name"].AsString() != "C" {
		t.Errorf("ties broke order: top=%s bottom=%s", top["name"].AsString(), bottom["name"].AsString())
	}
}

func TestPercentOfMedian(t *testing.T) {
	// A value at twice the median sits 100% above it.
	got, err := PercentOfMedian(20, 10)
	if err != nil {
		t.Fatalf("PercentOfMedian: %v", err)
	}
	if !almostEqual(got, 100.0) {
		t.Errorf("PercentOfMedian(20, 10) = %v, want 100", got)
	}
}

func TestPercentOfMedian_Below(t *testing.T) {
	got, err := PercentOfMedian(5, 10)
	if err != nil {
		t.Fatalf("PercentOfMedian: %v", err)
	}
	if !almostEqual(got, -50.0) {
		t.Errorf("PercentOfMedian(5, 10) = %v, want -50", got)
	}
}

func TestPercentOfMedian_ZeroMedian(t *testing.T) {
	_, err := PercentOfMedian(5, 0)
	if !errors.Is(err, ErrUndefinedRatio) {
		t.Errorf("err = %v, want ErrUndefinedRatio", err)
	}
}

func TestConcentrationShare(t *testing.T) {
	tbl := floatTable("pay", 50, 30, 10, 10)
	got, err := ConcentrationShare(tbl, "pay", 2)
	if err != nil {
		t.Fatalf("ConcentrationShare: %v", err)
	}
	if !almostEqual(got, 80.0) {
		t.Errorf("share = %v, want 80", got)
	}
}

func TestConcentrationShare_TopNClamped(t *testing.T) {
	tbl := floatTable("pay", 10, 20)
	got, err := ConcentrationShare(tbl, "pay", 10)
	if err != nil {
		t.Fatalf("ConcentrationShare: %v", err)
	}
	if !almostEqual(got, 100.0) {
		t.Errorf("share with clamped topN = %v, want 100", got)
	}
}

func TestConcentrationShare_ZeroTotal(t *testing.T) {
	tbl := floatTable("pay", 0, 0, 0)
	_, err := ConcentrationShare(tbl, "pay", 2)
	if !errors.Is(err, ErrUndefinedRatio) {
		t.Errorf("err = %v, want ErrUndefinedRatio", err)
	}
}

func TestCoefficientOfVariation_Bands(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		name string
		vals []float64
		band VariabilityBand
	}{
		{"constant column is minimal", []float64{100, 100, 100, 100}, VariabilityMinimal},
		{"wide spread is significant", []float64{1, 100, 200, 400}, VariabilitySignificant},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tbl := floatTable("v", tc.vals...)
			cv, band, err := CoefficientOfVariation(tbl, "v", th)
			if err != nil {
				t.Fatalf("CoefficientOfVariation: %v", err)
			}
			if band != tc.band {
				t.Errorf("band = %s (cv=%v), want %s", band, cv, tc.band)
			}
		})
	}
}

func TestCoefficientOfVariation_ConstantIsZero(t *testing.T) {
	tbl := floatTable("v", 7, 7, 7)
	cv, band, err := CoefficientOfVariation(tbl, "v", DefaultThresholds())
	if err != nil {
		t.Fatalf("CoefficientOfVariation: %v", err)
	}
	if cv != 0 || band != VariabilityMinimal {
		t.Errorf("cv=%v band=%s, want 0 and minimal", cv, band)
	}
}

func TestCoefficientOfVariation_ZeroMean(t *testing.T) {
	tbl := floatTable("v", -5, 5)
	_, band, err := CoefficientOfVariation(tbl, "v", DefaultThresholds())
	if !errors.Is(err, ErrUndefinedRatio) {
		t.Errorf("err = %v, want ErrUndefinedRatio", err)
	}
	if band != VariabilityUndefined {
		t.Errorf("band = %s, want undefined", band)
	}
}

func TestZScoreOutliers(t *testing.T) {
	// One extreme value among a tight cluster.
	tbl := floatTable("v", 10, 11, 9, 10, 100)
	out, err := ZScoreOutliers(tbl, "v", 1.5)
	if err != nil {
		t.Fatalf("ZScoreOutliers: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d outliers, want 1", len(out))
	}
	if out[0].Row["name"].AsString() != "E" {
		t.Errorf("outlier = %s, want E", out[0].Row["name"].AsString())
	}
	if out[0].Z <= 0 {
		t.Errorf("z = %v, want positive", out[0].Z)
	}
}

func TestZScoreOutliers_ZeroVariance(t *testing.T) {
	tbl := floatTable("v", 5, 5, 5)
	_, err := ZScoreOutliers(tbl, "v", 2.0)
	if !errors.Is(err, ErrZeroVariance) {
		t.Errorf("err = %v, want ErrZeroVariance", err)
	}
}

func TestZScoreOutliers_SingleRow(t *testing.T) {
	tbl := floatTable("v", 42)
	_, err := ZScoreOutliers(tbl, "v", 2.0)
	if !errors.Is(err, ErrZeroVariance) {
		t.Errorf("single row err = %v, want ErrZeroVariance", err)
	}
}

func TestPairwiseCorrelation_IdenticalColumns(t *testing.T) {
	tbl := model.NewTable("a", "b")
	for _, v := range []float64{1, 2, 3, 4, 5} {
		tbl.Append(model.Row{"a": model.Float(v), "b": model.Float(v)})
	}
	pairs := PairwiseCorrelation(tbl, []string{"a", "b"})
	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if !almostEqual(pairs[0].R, 1.0) {
		t.Errorf("r = %v, want 1.0", pairs[0].R)
	}
}

func TestStrongCorrelations_ExcludesNaN(t *testing.T) {
	pairs := []CorrelationPair{
		{ColA: "a", ColB: "b", R: math.NaN()},
		{ColA: "a", ColB: "c", R: 0.9},
		{ColA: "b", ColB: "c", R: -0.95},
		{ColA: "a", ColB: "d", R: 0.3},
	}
	strong := StrongCorrelations(pairs, 0.7)
	if len(strong) != 2 {
		t.Fatalf("got %d strong pairs, want 2", len(strong))
	}
	for _, p := range strong {
		if math.IsNaN(p.R) {
			t.Errorf("NaN pair leaked into strong set: %+v", p)
		}
	}
}

func TestEfficiencyRatio(t *testing.T) {
	tbl := model.NewTable("name", "pay", "benes")
	rows := []struct {
		name       string
		pay, benes float64
	}{
		{"A", 100, 10}, // ratio 10
		{"B", 100, 50}, // ratio 2, best
		{"C", 100, 4},  // ratio 25, worst
		{"D", 100, 0},  // excluded
	}
	for _, r := range rows {
		tbl.Append(model.Row{
			"name":  model.String(r.name),
			"pay":   model.Float(r.pay),
			"benes": model.Float(r.benes),
		})
	}

	best, worst, err := EfficiencyRatio(tbl, "pay", "benes")
	if err != nil {
		t.Fatalf("EfficiencyRatio: %v", err)
	}
	if best.Row["name"].AsString() != "B" || !almostEqual(best.Ratio, 2) {
		t.Errorf("best = %s (%v), want B (2)", best.Row["name"].AsString(), best.Ratio)
	}
	if worst.Row["name"].AsString() != "C" || !almostEqual(worst.Ratio, 25) {
		t.Errorf("worst = %s (%v), want C (25)", worst.Row["name"].AsString(), worst.Ratio)
	}
}

func TestEfficiencyRatio_AllZeroDenominators(t *testing.T) {
	tbl := model.NewTable("name", "pay", "benes")
	tbl.Append(model.Row{"name": model.String("A"), "pay": model.Float(10), "benes": model.Float(0)})

	_, _, err := EfficiencyRatio(tbl, "pay", "benes")
	if !errors.Is(err, ErrUndefinedRatio) {
		t.Errorf("err = %v, want ErrUndefinedRatio", err)
	}
}

func TestEfficiencyRatio_TieResolvesToEarlierRow(t *testing.T) {
	tbl := model.NewTable("name", "pay", "benes")
	tbl.Append(model.Row{"name": model.String("first"), "pay": model.Float(10), "benes": model.Float(5)})
	tbl.Append(model.Row{"name": model.String("second"), "pay": model.Float(20), "benes": model.Float(10)})

	best, worst, err := EfficiencyRatio(tbl, "pay", "benes")
	if err != nil {
		t.Fatalf("EfficiencyRatio: %v", err)
	}
	if best.Row["name"].AsString() != "first" || worst.Row["name"].AsString() != "first" {
		t.Errorf("tie did not resolve to earlier row: best=%s worst=%s",
			best.Row["name"].AsString(), worst.Row["name"].AsString())
	}
}
