package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/claimlens/pkg/model"
)

// Sentinel errors for statistical degeneracies. Generators translate these
// into fallback narrative; they never escape a generation call.
var (
	// ErrEmptyTable signals an operation over a table with no rows.
	ErrEmptyTable = errors.New("analysis: empty table")

	// ErrUndefinedRatio signals a ratio whose denominator statistic
	// (median, mean, column sum) is zero.
	ErrUndefinedRatio = errors.New("analysis: ratio undefined for zero denominator")

	// ErrZeroVariance signals outlier detection over a constant column.
	ErrZeroVariance = errors.New("analysis: zero variance")
)

// mean returns the arithmetic mean of a column.
func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// stdDev returns the sample standard deviation (n-1 denominator), matching
// the descriptive statistics the aggregate queries were tuned against.
// Returns 0 for fewer than two values.
func stdDev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

// median returns the middle value of the sorted input, or the midpoint of
// the two central values for even-length input.
func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// RankExtremes returns the top and bottom rows of a table by a numeric
// column. Ties keep their original row order (stable sort). Descending
// ranks the highest value first.
func RankExtremes(t *model.Table, col string, descending bool) (top, bottom model.Row, err error) {
	if t.IsEmpty() {
		return nil, nil, ErrEmptyTable
	}
	var sorted *model.Table
	if descending {
		sorted = t.SortedByDesc(col)
	} else {
		sorted = t.SortedByAsc(col)
	}
	return sorted.Rows[0], sorted.Rows[len(sorted.Rows)-1], nil
}

// PercentOfMedian returns how far a value sits above (positive) or below
// (negative) a median, in percent: (value/median - 1) * 100.
func PercentOfMedian(value, med float64) (float64, error) {
	if med == 0 {
		return 0, ErrUndefinedRatio
	}
	return (value/med - 1) * 100, nil
}

// ConcentrationShare returns the percentage of a column's total sum
// contributed by the topN rows when ranked by that column descending.
// topN values beyond the row count are clamped. A zero column sum yields
// (0, ErrUndefinedRatio) so callers can flag the degenerate input.
func ConcentrationShare(t *model.Table, col string, topN int) (float64, error) {
	if t.IsEmpty() {
		return 0, ErrEmptyTable
	}
	if topN > t.Len() {
		topN = t.Len()
	}
	if topN < 0 {
		topN = 0
	}
	sorted := t.SortedByDesc(col)
	var total, top float64
	for i, r := range sorted.Rows {
		v := r[col].AsFloat()
		total += v
		if i < topN {
			top += v
		}
	}
	if total == 0 {
		return 0, ErrUndefinedRatio
	}
	return top / total * 100, nil
}

// VariabilityBand classifies a coefficient of variation.
type VariabilityBand string

const (
	VariabilityMinimal     VariabilityBand = "minimal"
	VariabilityModerate    VariabilityBand = "moderate"
	VariabilitySignificant VariabilityBand = "significant"
	VariabilityUndefined   VariabilityBand = "undefined"
)

// CoefficientOfVariation returns std/mean * 100 for a column together with
// its band under the given thresholds. A zero mean yields
// (0, VariabilityUndefined, ErrUndefinedRatio); callers surface that as a
// data issue rather than dropping it.
func CoefficientOfVariation(t *model.Table, col string, th Thresholds) (float64, VariabilityBand, error) {
	if t.IsEmpty() {
		return 0, VariabilityUndefined, ErrEmptyTable
	}
	vals := t.Column(col)
	m := mean(vals)
	if m == 0 {
		return 0, VariabilityUndefined, ErrUndefinedRatio
	}
	cv := stdDev(vals) / m * 100
	switch {
	case cv < th.CVModerate:
		return cv, VariabilityMinimal, nil
	case cv < th.CVSignificant:
		return cv, VariabilityModerate, nil
	default:
		return cv, VariabilitySignificant, nil
	}
}

// Outlier is a row whose column value deviates from the mean by more than
// the z-score threshold, annotated with its signed z-score.
type Outlier struct {
	Index int
	Row   model.Row
	Z     float64
}

// ZScoreOutliers returns the rows where |value - mean| > threshold * std,
// in table order. A constant column (std 0, or too few rows to estimate
// spread) yields (nil, ErrZeroVariance); callers are required to emit an
// explicit zero-variance notice rather than stay silent.
func ZScoreOutliers(t *model.Table, col string, threshold float64) ([]Outlier, error) {
	if t.IsEmpty() {
		return nil, ErrEmptyTable
	}
	vals := t.Column(col)
	m, sd := mean(vals), stdDev(vals)
	if !(sd > 0) {
		return nil, ErrZeroVariance
	}
	var out []Outlier
	for i, v := range vals {
		if math.Abs(v-m) > threshold*sd {
			out = append(out, Outlier{Index: i, Row: t.Rows[i], Z: (v - m) / sd})
		}
	}
	return out, nil
}

// CorrelationPair is the Pearson correlation of one unordered column pair.
type CorrelationPair struct {
	ColA, ColB string
	R          float64
}

// PairwiseCorrelation computes the Pearson coefficient for every unordered
// pair of the given columns, in the order the columns were requested.
// Constant columns produce NaN coefficients; those pairs are still returned
// so callers can see them, but StrongCorrelations excludes them.
func PairwiseCorrelation(t *model.Table, cols []string) []CorrelationPair {
	if t.IsEmpty() {
		return nil
	}
	var pairs []CorrelationPair
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			r := stat.Correlation(t.Column(cols[i]), t.Column(cols[j]), nil)
			pairs = append(pairs, CorrelationPair{ColA: cols[i], ColB: cols[j], R: r})
		}
	}
	return pairs
}

// StrongCorrelations filters pairs to |r| > threshold. NaN coefficients
// (undefined correlation, e.g. a constant column) never count as strong.
func StrongCorrelations(pairs []CorrelationPair, threshold float64) []CorrelationPair {
	var out []CorrelationPair
	for _, p := range pairs {
		if !math.IsNaN(p.R) && math.Abs(p.R) > threshold {
			out = append(out, p)
		}
	}
	return out
}

// EfficiencyEntry is one row's numerator/denominator ratio.
type EfficiencyEntry struct {
	Row   model.Row
	Ratio float64
}

// EfficiencyRatio computes the per-row numerator/denominator ratio and
// returns the most efficient (lowest ratio) and least efficient (highest)
// rows. Rows with a zero denominator are excluded from ranking, not
// divided. Ties resolve to the earlier row. ErrUndefinedRatio when no row
// has a usable denominator.
func EfficiencyRatio(t *model.Table, numeratorCol, denominatorCol string) (best, worst EfficiencyEntry, err error) {
	if t.IsEmpty() {
		return EfficiencyEntry{}, EfficiencyEntry{}, ErrEmptyTable
	}
	found := false
	for _, r := range t.Rows {
		den := r[denominatorCol].AsFloat()
		if den == 0 {
			continue
		}
		ratio := r[numeratorCol].AsFloat() / den
		entry := EfficiencyEntry{Row: r, Ratio: ratio}
		if !found {
			best, worst = entry, entry
			found = true
			continue
		}
		if ratio < best.Ratio {
			best = entry
		}
		if ratio > worst.Ratio {
			worst = entry
		}
	}
	if !found {
		return EfficiencyEntry{}, EfficiencyEntry{}, ErrUndefinedRatio
	}
	return best, worst, nil
}
