package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/componentry/pkg/types"
)

// scanRows reads every row into a column-name keyed map. The returned slice
// is never nil.
func scanRows(rows *sql.Rows) ([]types.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	out := make([]types.Row, 0)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(types.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeValue narrows a driver value to nil, int64, float64, string, or
// []byte so rows cross the message boundary without loss.
func normalizeValue(v any) any {
	switch tv := v.(type) {
	case nil, int64, float64, string:
		return tv
	case []byte:
		b := make([]byte, len(tv))
		copy(b, tv)
		return b
	case bool:
		if tv {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(tv)
	case int32:
		return int64(tv)
	case float32:
		return float64(tv)
	case time.Time:
		return types.FormatTime(tv)
	default:
		return fmt.Sprint(tv)
	}
}
