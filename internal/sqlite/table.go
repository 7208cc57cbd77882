// This file holds helpers shared by the table accessors: JSONL
// persistence, timestamp encoding and filter decoding.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// formatNullTime encodes an optional timestamp; nil becomes NULL.
func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString stores an empty string as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// persistTableJSONL reads every row of table in the given order and
// rewrites fileName in DataDir atomically. Column names become JSON keys.
// The caller must hold the write lock.
func persistTableJSONL(b *Backend, table, fileName string, columns []string, orderBy string) error {
	rows, err := b.db.Query(fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), table, orderBy,
	))
	if err != nil {
		return fmt.Errorf("querying %s for JSONL: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning %s row: %w", table, err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				rec[col] = string(raw)
				continue
			}
			rec[col] = values[i]
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling %s row: %w", table, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s for JSONL: %w", table, err)
	}

	if err := writeJSONL(filepath.Join(b.config.DataDir, fileName), records); err != nil {
		// The SQLite commit already happened; the next Attach reloads the
		// older file content.
		b.logger.Error("JSONL file behind committed database",
			zap.String("file", fileName),
			zap.Error(err))
		return err
	}
	return nil
}

// filterString returns filter[key] as a string. ok is false when the key
// is absent; a value of another type yields ErrInvalidFilter.
func filterString(filter types.Filter, key string) (string, bool, error) {
	v, ok := filter[key]
	if !ok {
		return "", false, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return s, true, nil
}

func filterInt(filter types.Filter, key string) (int, bool, error) {
	v, ok := filter[key]
	if !ok {
		return 0, false, nil
	}
	n, isInt := toInt(v)
	if !isInt {
		return 0, false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return n, true, nil
}

func filterBool(filter types.Filter, key string) (bool, bool, error) {
	v, ok := filter[key]
	if !ok {
		return false, false, nil
	}
	flag, isBool := v.(bool)
	if !isBool {
		return false, false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return flag, true, nil
}

func filterStrings(filter types.Filter, key string) ([]string, bool, error) {
	v, ok := filter[key]
	if !ok {
		return nil, false, nil
	}
	ss, isSlice := v.([]string)
	if !isSlice {
		return nil, false, fmt.Errorf("filter %s: %w", key, types.ErrInvalidFilter)
	}
	return ss, true, nil
}

// pageClause renders the limit and offset filter keys. Non-positive
// values are ignored.
func pageClause(filter types.Filter) (string, error) {
	limit, hasLimit, err := filterInt(filter, "limit")
	if err != nil {
		return "", err
	}
	offset, hasOffset, err := filterInt(filter, "offset")
	if err != nil {
		return "", err
	}
	var clause string
	switch {
	case hasLimit && limit > 0:
		clause = fmt.Sprintf(" LIMIT %d", limit)
	case hasOffset && offset > 0:
		clause = " LIMIT -1"
	}
	if hasOffset && offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", offset)
	}
	return clause, nil
}

// toInt converts the integer kinds a filter may carry to int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case types.SpicinessLevel:
		return int(n), true
	default:
		return 0, false
	}
}
