package analysis

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// narrative localizes the numbers embedded in insight text: currency gets
// thousands separators, which plain fmt does not do.
var narrative = message.NewPrinter(language.AmericanEnglish)

// currency renders a dollar amount with grouping and two fixed decimals.
func currency(v float64) string {
	return narrative.Sprintf("$%.2f", v)
}

// percent renders a percentage with one fixed decimal.
func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
