package datasource

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/claimlens/pkg/debug"
)

// chunkSize is the number of rows inserted per transaction during a load.
const chunkSize = 100000

// LoadCSV loads a provider billing CSV into a SQLite database, replacing any
// existing table. Headers are sanitized into identifier-safe column names and
// the standard lookup indexes are created after the load.
func LoadCSV(csvPath, dbPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("opening CSV: %w", err)
	}
	defer file.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		debug.Log("pragma failed: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		debug.Log("pragma failed: %v", err)
	}

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading CSV header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = SanitizeColumn(h)
	}

	// First data row drives the column type declarations. SQLite's dynamic
	// typing forgives a wrong guess but numeric affinity keeps the aggregate
	// queries honest.
	firstRow, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("CSV has no data rows")
	}
	if err != nil {
		return fmt.Errorf("reading first CSV row: %w", err)
	}
	types := make([]string, len(columns))
	for i := range columns {
		types[i] = "TEXT"
		if i < len(firstRow) {
			if _, perr := strconv.ParseFloat(strings.TrimSpace(firstRow[i]), 64); perr == nil {
				types[i] = "REAL"
			}
		}
	}

	if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", TableName)); err != nil {
		return fmt.Errorf("dropping existing table: %w", err)
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%q %s", c, types[i])
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(defs, ", "))
	if _, err := db.Exec(createStmt); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	placeholders := strings.Repeat("?, ", len(columns))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", TableName, placeholders)

	start := time.Now()
	total := 0
	chunk := 0

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}

	insert := func(record []string) error {
		args := make([]any, len(columns))
		for i := range columns {
			if i >= len(record) {
				args[i] = nil
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				args[i] = nil
			} else if types[i] == "REAL" {
				if v, perr := strconv.ParseFloat(cell, 64); perr == nil {
					args[i] = v
				} else {
					args[i] = cell
				}
			} else {
				args[i] = cell
			}
		}
		_, err := stmt.Exec(args...)
		return err
	}

	if err := insert(firstRow); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting row: %w", err)
	}
	total++

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("reading CSV row %d: %w", total+2, err)
		}
		if err := insert(record); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting row %d: %w", total+1, err)
		}
		total++

		if total%chunkSize == 0 {
			stmt.Close()
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("committing chunk: %w", err)
			}
			chunk++
			debug.Log("processed chunk %d (%d rows)", chunk, total)

			tx, err = db.Begin()
			if err != nil {
				return fmt.Errorf("starting transaction: %w", err)
			}
			stmt, err = tx.Prepare(insertStmt)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("preparing insert: %w", err)
			}
		}
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing final chunk: %w", err)
	}

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_npi ON %s(Rndrng_NPI)", TableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_provider_type ON %s(Rndrng_Prvdr_Type)", TableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_state ON %s(Rndrng_Prvdr_State_Abrvtn)", TableName),
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			debug.Log("index creation failed: %v", err)
		}
	}

	debug.LogTiming(fmt.Sprintf("loaded %d rows", total), time.Since(start))
	return nil
}

// SanitizeColumn turns a raw CSV header into an identifier-safe column name:
// surrounding whitespace is trimmed, spaces and slashes become underscores,
// parentheses are removed, and percent signs become "Pct".
func SanitizeColumn(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "(", "")
	s = strings.ReplaceAll(s, ")", "")
	s = strings.ReplaceAll(s, "%", "Pct")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}

// Verify opens a database and reports its basic counts, confirming a load
// completed.
func Verify(dbPath string) (*Summary, error) {
	reader, err := NewSQLiteReader(dbPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return reader.Summary()
}
