package types

import (
	"fmt"
	"time"
)

// TimeLayout is the on-disk timestamp format. It is fixed width in UTC, so
// lexical order of stored values equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteTimeLayout is what CURRENT_TIMESTAMP produces.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime converts a stored timestamp value back into a time.Time.
// It accepts TimeLayout text, RFC3339 text, CURRENT_TIMESTAMP text, unix
// seconds, and time.Time. A nil value yields the zero time.
func ParseTime(v any) (time.Time, error) {
	switch tv := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return tv.UTC(), nil
	case int64:
		return time.Unix(tv, 0).UTC(), nil
	case []byte:
		return ParseTime(string(tv))
	case string:
		if tv == "" {
			return time.Time{}, nil
		}
		for _, layout := range []string{TimeLayout, time.RFC3339Nano, sqliteTimeLayout} {
			if t, err := time.Parse(layout, tv); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("parsing timestamp %q", tv)
	default:
		return time.Time{}, fmt.Errorf("parsing timestamp of type %T", v)
	}
}
