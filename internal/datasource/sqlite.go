// Package datasource provides read and load access to the provider billing
// SQLite database. The reader exposes one aggregate query per analysis view;
// each returns a model.Table ready for the insight generators.
package datasource

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/model"
)

// TableName is the billing aggregates table every query reads from.
const TableName = "medicare_providers"

// SQLiteReader provides read access to a provider billing SQLite database.
type SQLiteReader struct {
	db   *sql.DB
	path string
}

// NewSQLiteReader opens a SQLite database for reading.
func NewSQLiteReader(path string) (*SQLiteReader, error) {
	// Open in read-only mode with various pragmas for read performance
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set pragmas for read performance
	pragmas := []string{
		"PRAGMA cache_size = -64000",  // 64MB cache
		"PRAGMA mmap_size = 268435456", // 256MB mmap
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("pragma failed: %v", err)
		}
	}

	return &SQLiteReader{db: db, path: path}, nil
}

// Close closes the database connection.
func (r *SQLiteReader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file path the reader was opened with.
func (r *SQLiteReader) Path() string {
	return r.path
}

// providerSortColumns is the allowlist for provider distribution ordering.
// Sort columns are interpolated into SQL, so anything outside this set is
// rejected before the query is built.
var providerSortColumns = map[string]bool{
	"provider_count":              true,
	"total_beneficiaries":         true,
	"total_services":              true,
	"total_medicare_payments":     true,
	"avg_payment_per_provider":    true,
	"avg_payment_per_beneficiary": true,
	"avg_payment_per_service":     true,
}

// geographicMetricColumns is the allowlist for geographic ordering.
var geographicMetricColumns = map[string]bool{
	"provider_count":                       true,
	"total_beneficiaries":                  true,
	"total_services":                       true,
	"total_medicare_payments":              true,
	"payment_per_beneficiary":              true,
	"payment_per_service":                  true,
	"total_standardized_payments":          true,
	"standardized_payment_per_beneficiary": true,
}

// usStates restricts geographic results to the 50 states plus DC, dropping
// territories and military postal codes that skew per-capita figures.
var usStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY", "DC",
}

// ProviderDistribution aggregates billing by provider type: provider counts,
// beneficiary and service totals, and per-provider / per-beneficiary /
// per-service payment averages.
func (r *SQLiteReader) ProviderDistribution(sortBy string, limit int) (*model.Table, error) {
	if sortBy == "" {
		sortBy = "total_medicare_payments"
	}
	if !providerSortColumns[sortBy] {
		return nil, fmt.Errorf("invalid sort column: %q", sortBy)
	}
	if limit <= 0 {
		limit = 15
	}

	query := fmt.Sprintf(`
		SELECT
			Rndrng_Prvdr_Type,
			COUNT(DISTINCT Rndrng_NPI) AS provider_count,
			SUM(Tot_Benes) AS total_beneficiaries,
			SUM(Tot_Srvcs) AS total_services,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt), 2) AS total_medicare_payments,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / COUNT(DISTINCT Rndrng_NPI), 2) AS avg_payment_per_provider,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / SUM(Tot_Benes), 2) AS avg_payment_per_beneficiary,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / SUM(Tot_Srvcs), 2) AS avg_payment_per_service
		FROM %s
		WHERE Tot_Benes > 0
		GROUP BY Rndrng_Prvdr_Type
		ORDER BY %s DESC
		LIMIT ?`, TableName, sortBy)

	start := time.Now()
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("provider distribution query: %w", err)
	}
	defer rows.Close()

	t := model.NewTable(
		"Rndrng_Prvdr_Type", "provider_count", "total_beneficiaries",
		"total_services", "total_medicare_payments", "avg_payment_per_provider",
		"avg_payment_per_beneficiary", "avg_payment_per_service",
	)
	for rows.Next() {
		var providerType sql.NullString
		var providerCount sql.NullInt64
		var beneficiaries, services sql.NullFloat64
		var payments, perProvider, perBeneficiary, perService sql.NullFloat64

		if err := rows.Scan(&providerType, &providerCount, &beneficiaries,
			&services, &payments, &perProvider, &perBeneficiary, &perService); err != nil {
			return nil, fmt.Errorf("scanning provider row: %w", err)
		}

		t.Append(model.Row{
			"Rndrng_Prvdr_Type":           model.String(providerType.String),
			"provider_count":              model.Int(providerCount.Int64),
			"total_beneficiaries":         model.Float(beneficiaries.Float64),
			"total_services":              model.Float(services.Float64),
			"total_medicare_payments":     model.Float(payments.Float64),
			"avg_payment_per_provider":    model.Float(perProvider.Float64),
			"avg_payment_per_beneficiary": model.Float(perBeneficiary.Float64),
			"avg_payment_per_service":     model.Float(perService.Float64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading provider rows: %w", err)
	}

	debug.LogTiming("provider distribution query", time.Since(start))
	return t, nil
}

// GeographicDistribution aggregates billing by state, restricted to the 50
// states plus DC. Results come back ordered by the requested metric.
func (r *SQLiteReader) GeographicDistribution(metric string) (*model.Table, error) {
	if metric == "" {
		metric = "payment_per_beneficiary"
	}
	if !geographicMetricColumns[metric] {
		return nil, fmt.Errorf("invalid metric column: %q", metric)
	}

	placeholders := make([]string, len(usStates))
	args := make([]any, len(usStates))
	for i, s := range usStates {
		placeholders[i] = "?"
		args[i] = s
	}

	query := fmt.Sprintf(`
		SELECT
			Rndrng_Prvdr_State_Abrvtn,
			COUNT(DISTINCT Rndrng_NPI) AS provider_count,
			SUM(Tot_Benes) AS total_beneficiaries,
			SUM(Tot_Srvcs) AS total_services,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt), 2) AS total_medicare_payments,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / SUM(Tot_Benes), 2) AS payment_per_beneficiary,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / SUM(Tot_Srvcs), 2) AS payment_per_service,
			ROUND(SUM(Tot_Mdcr_Stdzd_Amt), 2) AS total_standardized_payments,
			ROUND(SUM(Tot_Mdcr_Stdzd_Amt) / SUM(Tot_Benes), 2) AS standardized_payment_per_beneficiary
		FROM %s
		WHERE Rndrng_Prvdr_State_Abrvtn IN (%s)
		AND Tot_Benes > 0
		GROUP BY Rndrng_Prvdr_State_Abrvtn
		ORDER BY %s DESC`, TableName, strings.Join(placeholders, ", "), metric)

	start := time.Now()
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("geographic distribution query: %w", err)
	}
	defer rows.Close()

	t := model.NewTable(
		"Rndrng_Prvdr_State_Abrvtn", "provider_count", "total_beneficiaries",
		"total_services", "total_medicare_payments", "payment_per_beneficiary",
		"payment_per_service", "total_standardized_payments",
		"standardized_payment_per_beneficiary",
	)
	for rows.Next() {
		var state sql.NullString
		var providerCount sql.NullInt64
		var beneficiaries, services sql.NullFloat64
		var payments, perBeneficiary, perService sql.NullFloat64
		var stdPayments, stdPerBeneficiary sql.NullFloat64

		if err := rows.Scan(&state, &providerCount, &beneficiaries, &services,
			&payments, &perBeneficiary, &perService, &stdPayments, &stdPerBeneficiary); err != nil {
			return nil, fmt.Errorf("scanning geographic row: %w", err)
		}

		t.Append(model.Row{
			"Rndrng_Prvdr_State_Abrvtn":            model.String(state.String),
			"provider_count":                       model.Int(providerCount.Int64),
			"total_beneficiaries":                  model.Float(beneficiaries.Float64),
			"total_services":                       model.Float(services.Float64),
			"total_medicare_payments":              model.Float(payments.Float64),
			"payment_per_beneficiary":              model.Float(perBeneficiary.Float64),
			"payment_per_service":                  model.Float(perService.Float64),
			"total_standardized_payments":          model.Float(stdPayments.Float64),
			"standardized_payment_per_beneficiary": model.Float(stdPerBeneficiary.Float64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading geographic rows: %w", err)
	}

	debug.LogTiming("geographic distribution query", time.Since(start))
	return t, nil
}

// RiskDistribution returns individual providers ranked by per-service payment,
// filtered to providers with a meaningful service volume. The type filter
// keeps only the N most common provider types and caps rows per type so a
// single specialty cannot crowd out the rest of the view. Each row carries a
// Provider_ID column, the last four NPI digits, for compact display.
func (r *SQLiteReader) RiskDistribution(filter model.ProviderTypeFilter, limit int) (*model.Table, error) {
	if limit <= 0 {
		limit = 25
	}

	query := fmt.Sprintf(`
		SELECT
			Rndrng_NPI,
			Rndrng_Prvdr_Type,
			Rndrng_Prvdr_State_Abrvtn,
			Tot_Benes,
			Tot_Srvcs,
			ROUND(Tot_Mdcr_Pymt_Amt, 2) AS total_payment,
			ROUND(Tot_Mdcr_Stdzd_Amt, 2) AS total_standardized_payment,
			ROUND(Tot_Mdcr_Pymt_Amt / Tot_Srvcs, 2) AS payment_per_service,
			ROUND(Tot_Mdcr_Pymt_Amt / Tot_Benes, 2) AS payment_per_beneficiary
		FROM %s
		WHERE Tot_Srvcs > 10
		ORDER BY payment_per_service DESC`, TableName)

	start := time.Now()
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("risk distribution query: %w", err)
	}
	defer rows.Close()

	t := model.NewTable(
		"Rndrng_NPI", "Provider_ID", "Rndrng_Prvdr_Type",
		"Rndrng_Prvdr_State_Abrvtn", "Tot_Benes", "Tot_Srvcs",
		"total_payment", "total_standardized_payment",
		"payment_per_service", "payment_per_beneficiary",
	)
	for rows.Next() {
		var npi sql.NullInt64
		var providerType, state sql.NullString
		var beneficiaries, services sql.NullFloat64
		var payment, stdPayment, perService, perBeneficiary sql.NullFloat64

		if err := rows.Scan(&npi, &providerType, &state, &beneficiaries,
			&services, &payment, &stdPayment, &perService, &perBeneficiary); err != nil {
			return nil, fmt.Errorf("scanning risk row: %w", err)
		}

		npiStr := fmt.Sprintf("%d", npi.Int64)
		t.Append(model.Row{
			"Rndrng_NPI":                 model.String(npiStr),
			"Provider_ID":                model.String(shortProviderID(npiStr)),
			"Rndrng_Prvdr_Type":          model.String(providerType.String),
			"Rndrng_Prvdr_State_Abrvtn":  model.String(state.String),
			"Tot_Benes":                  model.Float(beneficiaries.Float64),
			"Tot_Srvcs":                  model.Float(services.Float64),
			"total_payment":              model.Float(payment.Float64),
			"total_standardized_payment": model.Float(stdPayment.Float64),
			"payment_per_service":        model.Float(perService.Float64),
			"payment_per_beneficiary":    model.Float(perBeneficiary.Float64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading risk rows: %w", err)
	}

	debug.LogTiming("risk distribution query", time.Since(start))
	return limitByProviderType(t, filter, limit), nil
}

// limitByProviderType keeps the filter's most common provider types and caps
// rows per type at limit/typeCount, preserving the per-service payment
// ordering inside each type.
func limitByProviderType(t *model.Table, filter model.ProviderTypeFilter, limit int) *model.Table {
	if t.IsEmpty() {
		return t
	}

	counts := make(map[string]int)
	order := []string{}
	for _, r := range t.Rows {
		typ := r["Rndrng_Prvdr_Type"].AsString()
		if counts[typ] == 0 {
			order = append(order, typ)
		}
		counts[typ]++
	}

	keep := make(map[string]bool)
	perType := 0
	if n := filter.TopN(); n > 0 {
		// Most common types first; ties break on first appearance, which
		// matches the per-service ranking of the underlying rows.
		sort.SliceStable(order, func(i, j int) bool {
			return counts[order[i]] > counts[order[j]]
		})
		if n > len(order) {
			n = len(order)
		}
		for _, typ := range order[:n] {
			keep[typ] = true
		}
		perType = limit / n
	} else {
		for _, typ := range order {
			keep[typ] = true
		}
		perType = limit / len(order)
	}
	if perType < 1 {
		perType = 1
	}

	out := model.NewTable(t.Columns...)
	taken := make(map[string]int)
	for _, r := range t.Rows {
		typ := r["Rndrng_Prvdr_Type"].AsString()
		if !keep[typ] || taken[typ] >= perType {
			continue
		}
		taken[typ]++
		out.Append(r)
	}
	return out
}

// Comparative aggregates billing across provider types or states for
// side-by-side comparison, capped at the 25 largest groups by total payments.
func (r *SQLiteReader) Comparative(compareBy model.CompareDimension) (*model.Table, error) {
	groupBy := "Rndrng_Prvdr_Type"
	if compareBy == model.CompareState {
		groupBy = "Rndrng_Prvdr_State_Abrvtn"
	}

	query := fmt.Sprintf(`
		SELECT
			%s,
			COUNT(DISTINCT Rndrng_NPI) AS provider_count,
			SUM(Tot_Benes) AS total_beneficiaries,
			SUM(Tot_Srvcs) AS total_services,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt), 2) AS total_medicare_payments,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / SUM(Tot_Benes), 2) AS payment_per_beneficiary,
			ROUND(SUM(Tot_Mdcr_Pymt_Amt) / SUM(Tot_Srvcs), 2) AS payment_per_service
		FROM %s
		WHERE Tot_Benes > 0 AND Tot_Srvcs > 0
		GROUP BY %s
		ORDER BY total_medicare_payments DESC
		LIMIT 25`, groupBy, TableName, groupBy)

	start := time.Now()
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("comparative query: %w", err)
	}
	defer rows.Close()

	t := model.NewTable(
		groupBy, "provider_count", "total_beneficiaries", "total_services",
		"total_medicare_payments", "payment_per_beneficiary", "payment_per_service",
	)
	for rows.Next() {
		var group sql.NullString
		var providerCount sql.NullInt64
		var beneficiaries, services sql.NullFloat64
		var payments, perBeneficiary, perService sql.NullFloat64

		if err := rows.Scan(&group, &providerCount, &beneficiaries, &services,
			&payments, &perBeneficiary, &perService); err != nil {
			return nil, fmt.Errorf("scanning comparative row: %w", err)
		}

		t.Append(model.Row{
			groupBy:                   model.String(group.String),
			"provider_count":          model.Int(providerCount.Int64),
			"total_beneficiaries":     model.Float(beneficiaries.Float64),
			"total_services":          model.Float(services.Float64),
			"total_medicare_payments": model.Float(payments.Float64),
			"payment_per_beneficiary": model.Float(perBeneficiary.Float64),
			"payment_per_service":     model.Float(perService.Float64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading comparative rows: %w", err)
	}

	debug.LogTiming("comparative query", time.Since(start))
	return t, nil
}

// Summary holds basic dataset counts for report headers and verification.
type Summary struct {
	TotalRecords    int
	UniqueProviders int
	ProviderTypes   int
	States          int
}

// Summary reports dataset-level counts.
func (r *SQLiteReader) Summary() (*Summary, error) {
	s := &Summary{}
	queries := []struct {
		query string
		dest  *int
	}{
		{fmt.Sprintf("SELECT COUNT(*) FROM %s", TableName), &s.TotalRecords},
		{fmt.Sprintf("SELECT COUNT(DISTINCT Rndrng_NPI) FROM %s", TableName), &s.UniqueProviders},
		{fmt.Sprintf("SELECT COUNT(DISTINCT Rndrng_Prvdr_Type) FROM %s", TableName), &s.ProviderTypes},
		{fmt.Sprintf("SELECT COUNT(DISTINCT Rndrng_Prvdr_State_Abrvtn) FROM %s", TableName), &s.States},
	}
	for _, q := range queries {
		if err := r.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("summary query: %w", err)
		}
	}
	return s, nil
}

// shortProviderID abbreviates an NPI to its last four digits for display.
func shortProviderID(npi string) string {
	if len(npi) <= 4 {
		return npi
	}
	return npi[len(npi)-4:]
}
