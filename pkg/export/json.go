package export

import (
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/claimlens/pkg/analysis"
)

// FormatJSON encodes an insight set for machine consumers. Categories the
// generator defined encode as arrays (empty ones as []); categories it
// never produced encode as null, preserving the defined/undefined
// distinction.
func FormatJSON(set *analysis.InsightSet) ([]byte, error) {
	return json.MarshalIndent(set, "", "  ")
}
