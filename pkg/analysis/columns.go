package analysis

import (
	"strings"

	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// columnAliases maps a logical field name to the ordered list of physical
// column names it may appear under. Upstream exports have shipped both the
// raw CMS headers and the friendlier aggregate names, so resolution accepts
// either. Matching is exact but case-insensitive; first listed alias wins.
var columnAliases = map[string][]string{
	"npi": {
		"Rndrng_NPI",
		"npi",
		"provider_npi",
	},
	"provider_type": {
		"Rndrng_Prvdr_Type",
		"provider_type",
	},
	"state": {
		"Rndrng_Prvdr_State_Abrvtn",
		"state",
		"state_abbreviation",
		"state_abrvtn",
	},
	"total_standardized_payment": {
		"total_standardized_payment",
		"Tot_Mdcr_Stdzd_Amt",
	},
	"payment_per_service": {
		"payment_per_service",
	},
	"total_medicare_payments": {
		"total_medicare_payments",
		"Tot_Mdcr_Pymt_Amt",
	},
	"total_beneficiaries": {
		"total_beneficiaries",
		"Tot_Benes",
	},
}

// ResolveColumn maps a logical field name to the physical column the table
// actually carries. The logical name itself is tried first, then its
// aliases. Returns ("", false) when nothing matches.
func ResolveColumn(t *model.Table, logical string) (string, bool) {
	if col := t.FindColumnFold(logical); col != "" {
		return col, true
	}
	for _, alias := range columnAliases[strings.ToLower(logical)] {
		if col := t.FindColumnFold(alias); col != "" {
			return col, true
		}
	}
	debug.Log("column %q not resolved against %v", logical, t.Columns)
	return "", false
}

// resolveAll resolves every logical name, reporting the ones that failed.
func resolveAll(t *model.Table, logicals ...string) (map[string]string, []string) {
	resolved := make(map[string]string, len(logicals))
	var missing []string
	for _, name := range logicals {
		col, ok := ResolveColumn(t, name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		resolved[name] = col
	}
	return resolved, missing
}
