package database

import (
	"strings"

	"github.com/koustreak/schemacache/internal/errs"
)

// ScanRows drains rows into one map per row keyed by lower-cased column
// name. Text returned as []byte by database/sql drivers is converted to
// string so callers see the same value types from every driver.
//
// The returned slice is never nil. ScanRows always closes rows.
func ScanRows(rows Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindMalformedResult, "failed to read column names", err)
	}
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = strings.ToLower(c)
	}

	result := make([]map[string]any, 0)
	dest := make([]any, len(columns))
	ptrs := make([]any, len(columns))

	for rows.Next() {
		for i := range dest {
			dest[i] = nil
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ErrKindMalformedResult, "failed to scan row", err)
		}

		row := make(map[string]any, len(keys))
		for i, k := range keys {
			if b, ok := dest[i].([]byte); ok {
				row[k] = string(b)
				continue
			}
			row[k] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		if errs.KindOf(err) != errs.ErrKindUnknown {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "error during row iteration", err)
	}
	return result, nil
}
