package evstore

import (
	"fmt"
	"math"
)

// Entry is one (column, value, timestamp) triple within a row record.
// Values are scalars: int64, float64, bool or string after normalization.
type Entry struct {
	Column    string
	Value     any
	Timestamp int64
}

// Row is one recorded row: an identifier plus its ordered entries. Row IDs
// need not be unique across commits, and entries may repeat a column name;
// last-write-wins is a reader policy, not enforced here.
type Row struct {
	ID      string
	Entries []Entry
}

// normalizeValue maps the supported Go scalar kinds onto the four canonical
// ones so that both codecs round-trip values exactly.
func normalizeValue(v any) (any, error) {
	switch v := v.(type) {
	case int64, float64, bool, string:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return float64(v), nil
	case nil:
		return nil, fmt.Errorf("nil value")
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func normalizeEntries(entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("row must have at least one entry")
	}
	norm := make([]Entry, len(entries))
	for i, e := range entries {
		v, err := normalizeValue(e.Value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", e.Column, err)
		}
		norm[i] = Entry{Column: e.Column, Value: v, Timestamp: e.Timestamp}
	}
	return norm, nil
}
