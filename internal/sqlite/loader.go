// This file implements JSONL loading for startup.
package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL files to their SQLite tables and columns.
// Referenced tables load first so foreign keys resolve.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
	check   recordCheck
}{
	{categoriesFile, "categories", categoryColumns, checkCreatedAt},
	{noodlesFile, "noodles", noodleColumns, checkNoodleRecord},
	{favouritesFile, "favourites", favouriteColumns, checkCreatedAt},
}

// recordCheck rejects a decoded record that SQLite would accept but the
// table accessors could not read back.
type recordCheck func(obj map[string]any) error

// loadStats reports what loading one JSONL file did.
type loadStats struct {
	file    string
	loaded  int
	skipped int
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// in one transaction. Malformed lines, records that fail the table's check
// and records that violate a constraint are skipped. Unknown fields are
// ignored.
func loadAllJSONL(db *sql.DB, dataDir string) ([]loadStats, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stats := make([]loadStats, 0, len(jsonlTableMapping))
	for _, mapping := range jsonlTableMapping {
		records, skipped, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		s := loadStats{file: mapping.file, skipped: skipped}
		if len(records) > 0 {
			loaded, rejected, err := insertRecords(tx, mapping.table, mapping.columns, mapping.check, records)
			if err != nil {
				return nil, fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
			}
			s.loaded = loaded
			s.skipped += rejected
		}
		stats = append(stats, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing load transaction: %w", err)
	}
	return stats, nil
}

// insertRecords inserts parsed JSONL records into a table. Only the listed
// columns are extracted; a missing column inserts NULL. Returns the number
// of rows inserted and the number of records skipped.
func insertRecords(tx *sql.Tx, table string, columns []string, check recordCheck, records []json.RawMessage) (int, int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		return 0, 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	var loaded, skipped int
	for _, rec := range records {
		obj, err := decodeRecord(rec)
		if err != nil {
			skipped++
			continue
		}
		if check != nil && check(obj) != nil {
			skipped++
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = columnValue(obj[col])
		}
		if _, err := stmt.Exec(args...); err != nil {
			skipped++
			continue
		}
		loaded++
	}
	return loaded, skipped, nil
}

// checkNoodleRecord requires integral numeric columns and RFC 3339
// timestamps. Absent numeric columns are left to the NOT NULL constraints.
func checkNoodleRecord(obj map[string]any) error {
	for _, col := range []string{"spiciness_level", "rating", "reviews_count"} {
		if err := checkInteger(obj, col); err != nil {
			return err
		}
	}
	if err := checkCreatedAt(obj); err != nil {
		return err
	}
	switch v := obj["last_reviewed_at"].(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		if _, err := parseTime(v); err != nil {
			return fmt.Errorf("last_reviewed_at: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("last_reviewed_at: not a string")
	}
}

func checkInteger(obj map[string]any, col string) error {
	v, ok := obj[col]
	if !ok || v == nil {
		return nil
	}
	n, isNumber := v.(json.Number)
	if !isNumber {
		return fmt.Errorf("%s: not a number", col)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("%s: not an integer", col)
	}
	return nil
}

func checkCreatedAt(obj map[string]any) error {
	s, ok := obj["created_at"].(string)
	if !ok {
		return fmt.Errorf("created_at: not a string")
	}
	if _, err := parseTime(s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	return nil
}

// decodeRecord parses a JSON object keeping numbers exact.
func decodeRecord(rec json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("record is not an object")
	}
	return obj, nil
}

// columnValue converts a decoded JSON value into a SQLite argument.
func columnValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return val
	}
}
