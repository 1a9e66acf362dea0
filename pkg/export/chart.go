package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/claimlens/pkg/model"
)

// Chart styling. Mirrors the dashboard palette so exported charts match the
// rendered views.
const (
	chartBackdrop = "#f5f7fa"
	chartBar      = "#004b87"
	chartText     = "#333333"
	chartSubtle   = "#667788"
	chartAxis     = "#aab4c0"
)

// BarChartOptions configure an SVG bar chart export.
type BarChartOptions struct {
	Title    string
	LabelCol string
	ValueCol string
	Width    int
	Height   int
}

// WriteBarChartFile renders a horizontal bar chart of a table column to an
// SVG file.
func WriteBarChartFile(path string, t *model.Table, opts BarChartOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer file.Close()
	return WriteBarChart(file, t, opts)
}

// WriteBarChart renders a horizontal bar chart of a table column. Bars keep
// the table's row order, so a table sorted by the value column produces a
// ranked chart.
func WriteBarChart(w io.Writer, t *model.Table, opts BarChartOptions) error {
	if t.IsEmpty() {
		return fmt.Errorf("bar chart: empty table")
	}
	if !t.HasColumn(opts.LabelCol) || !t.HasColumn(opts.ValueCol) {
		return fmt.Errorf("bar chart: columns %q/%q not in table", opts.LabelCol, opts.ValueCol)
	}
	if opts.Width <= 0 {
		opts.Width = 900
	}
	if opts.Height <= 0 {
		opts.Height = 60 + 28*t.Len()
	}

	maxVal := 0.0
	for _, r := range t.Rows {
		if v := r[opts.ValueCol].AsFloat(); v > maxVal {
			maxVal = v
		}
	}

	const (
		marginLeft  = 220
		marginTop   = 50
		barHeight   = 18
		barGap      = 10
		marginRight = 90
	)
	plotWidth := opts.Width - marginLeft - marginRight

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, fmt.Sprintf("fill:%s", chartBackdrop))
	if opts.Title != "" {
		canvas.Text(marginLeft, 24, opts.Title,
			fmt.Sprintf("fill:%s;font-size:16px;font-family:sans-serif;font-weight:bold", chartText))
	}
	canvas.Text(marginLeft, 40, model.ColumnTitle(opts.ValueCol),
		fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif", chartSubtle))
	canvas.Line(marginLeft, marginTop-6, marginLeft, opts.Height-10,
		fmt.Sprintf("stroke:%s;stroke-width:1", chartAxis))

	for i, r := range t.Rows {
		y := marginTop + i*(barHeight+barGap)
		label := truncateLabel(r[opts.LabelCol].AsString(), 32)
		value := r[opts.ValueCol].AsFloat()

		width := 0
		if maxVal > 0 {
			width = int(float64(plotWidth) * value / maxVal)
		}
		canvas.Text(marginLeft-8, y+barHeight-4, label,
			fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif;text-anchor:end", chartText))
		canvas.Rect(marginLeft, y, width, barHeight, fmt.Sprintf("fill:%s", chartBar))
		canvas.Text(marginLeft+width+6, y+barHeight-4, fmt.Sprintf("%.2f", value),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", chartSubtle))
	}

	canvas.End()
	return nil
}

func truncateLabel(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max-3]) + "..."
}
