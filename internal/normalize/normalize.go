// Package normalize converts driver-native row values into JSON-safe
// primitives. Value is pure and total: it never fails for any value a
// driver can return.
package normalize

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Base64Prefix marks a value that arrived as non-UTF-8 binary and was
// base64-encoded, so consumers can tell encoded binary from plain text.
const Base64Prefix = "base64:"

// Value maps a driver-returned value to a string, number, boolean, or
// nil. Decimal numerics arrive from both drivers as text and stay text,
// preserving precision; date/time values become ISO-8601 strings; binary
// payloads become UTF-8 text when valid, base64 text otherwise.
func Value(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string:
		return val
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return val
	case float32:
		return normalizeFloat(float64(val))
	case float64:
		return normalizeFloat(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case time.Duration:
		return isoDuration(val)
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return Base64Prefix + base64.StdEncoding.EncodeToString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Value(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Value(item)
		}
		return out
	default:
		return fmt.Sprintf("%v", val)
	}
}

// normalizeFloat keeps regular floats as numbers; NaN and infinities are
// not representable in JSON and become strings.
func normalizeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

// isoDuration renders a time delta as ISO-8601 duration text, e.g.
// "PT1M30S".
func isoDuration(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteString("PT")
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d.Seconds()
	if h > 0 {
		fmt.Fprintf(&b, "%dH", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dM", m)
	}
	if s > 0 {
		b.WriteString(strconv.FormatFloat(s, 'f', -1, 64))
		b.WriteByte('S')
	}
	return b.String()
}

// Row builds a column-keyed map from one scanned row.
func Row(columns []string, values []any) map[string]any {
	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = Value(values[i])
	}
	return row
}
