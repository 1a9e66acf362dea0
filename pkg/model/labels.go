package model

import "strings"

// columnLabels maps machine column names to the phrasing used in narrative
// insight text. Columns without an entry fall back to a mechanical transform.
var columnLabels = map[string]string{
	"provider_count":              "total providers",
	"avg_payment_per_provider":    "average payment per provider",
	"avg_payment_per_beneficiary": "average payment per beneficiary",
	"avg_payment_per_service":     "average payment per service",
	"total_medicare_payments":     "total medicare payments",
	"payment_per_beneficiary":     "payment per beneficiary",
	"payment_per_service":         "payment per service",
}

// ColumnLabel returns the human-readable label for a column. Unknown columns
// get underscores replaced with spaces.
func ColumnLabel(col string) string {
	if label, ok := columnLabels[col]; ok {
		return label
	}
	return strings.ReplaceAll(col, "_", " ")
}

// ColumnTitle is ColumnLabel with each word capitalized, for headings.
func ColumnTitle(col string) string {
	words := strings.Fields(ColumnLabel(col))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
