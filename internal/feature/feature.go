// Package feature turns raw transaction records into fixed-order numeric
// feature vectors.
//
// Extraction is total: a record with missing or garbled fields still yields a
// valid vector, with zero defaults for anything that cannot be coerced. The
// column order is canonical and shared between training and live scoring; a
// model artifact trained against a different order is rejected at load time.
package feature

import (
	"strconv"
	"strings"
	"time"
)

// Transaction is a raw payment record as delivered by the event feed.
// All fields are optional and loosely typed.
type Transaction map[string]any

// Vector is a feature vector in canonical column order.
type Vector []float64

// columns is the canonical feature column order: sorted feature names.
// Training and scoring both index vectors by this order.
var columns = []string{
	"amount",
	"hour",
	"is_retry",
	"memo_len",
	"st_failed",
	"st_queued",
	"st_success",
}

// Columns returns the canonical feature column order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Dim is the number of features per vector.
func Dim() int { return len(columns) }

// Extract builds a feature vector from a raw transaction. It never fails.
// If the record carries no timestamp, the current wall-clock hour is used,
// so callers wanting reproducible output must supply "ts" explicitly.
func Extract(tx Transaction) Vector {
	ts, ok := asInt64(tx["ts"])
	if !ok || ts == 0 {
		ts = time.Now().UnixMilli()
	}
	hour := float64((ts / 1000 % 86400) / 3600)
	if hour < 0 {
		hour += 24
	}

	status := strings.ToLower(asString(tx["status"]))

	byName := map[string]float64{
		"amount":     asFloat(tx["amount"]),
		"hour":       hour,
		"is_retry":   boolToFloat(truthy(tx["retry"])),
		"memo_len":   float64(len([]rune(asString(tx["memo"])))),
		"st_failed":  boolToFloat(strings.Contains(status, "fail")),
		"st_queued":  boolToFloat(strings.Contains(status, "queue")),
		"st_success": boolToFloat(strings.Contains(status, "success")),
	}

	vec := make(Vector, len(columns))
	for i, name := range columns {
		vec[i] = byName[name]
	}
	return vec
}

// Ref returns a best-effort reference string for a transaction, used to key
// assessments and alerts. Falls back through common id fields to empty.
func Ref(tx Transaction) string {
	for _, key := range []string{"txId", "id", "ref"} {
		if s := asString(tx[key]); s != "" {
			return s
		}
	}
	return ""
}

// asFloat coerces numbers and numeric strings; anything else is 0.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// asInt64 coerces millisecond timestamps from the loose types JSON decoding
// produces. Returns false if the value is absent or not numeric.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truthy reports whether a retry-style flag is set: boolean true, numeric 1,
// or the strings "1"/"true" in any case.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b == 1
	case int64:
		return b == 1
	case float64:
		return b == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "1" || s == "true"
	default:
		return false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
