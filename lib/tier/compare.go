package tier

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Sort Value Comparison
// --------------------------------------------------------------------------

// Compare is the 3-way comparator both tiers order effective sort values by:
// equal values yield 0, otherwise values are ordered by relative magnitude.
// Numeric and lexical values are handled uniformly through the same
// comparator, with all numeric values ordering before all text values. This
// matches SQLite type affinity, so the memory tier and the SQL ORDER BY of
// the durable tier agree on every pair of values.
//
// Booleans compare as 0/1, mirroring what json_extract yields for JSON
// booleans. Values that are neither numeric nor strings compare by their
// formatted representation.
func Compare(a, b any) int {
	na, aNum := NumericValue(a)
	nb, bNum := NumericValue(b)

	switch {
	case aNum && bNum:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	case aNum:
		return -1 // numbers order before text
	case bNum:
		return 1
	default:
		return strings.Compare(lexicalValue(a), lexicalValue(b))
	}
}

// NumericValue normalizes a payload value to float64 if it is numeric.
// JSON decoding yields float64 for all numbers, but values constructed in
// process (tests, defaults, cursors echoed back by clients) may carry any
// integer width.
func NumericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// lexicalValue normalizes a non-numeric value to its string form.
func lexicalValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
