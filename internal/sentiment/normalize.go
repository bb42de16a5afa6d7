// Package sentiment turns raw long/short account ratio series into a smoothed long/short percentage pair.
package sentiment

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"lsratio-go/internal/exchange"
)

// ErrEmptySeries is shared with the fetcher so callers can test for it once.
var ErrEmptySeries = exchange.ErrEmptySeries

// DefaultFields is the lookup table for the long ratio, in priority order.
var DefaultFields = []string{"longAccount", "longAccountRatio"}

// FieldError reports a record with none of the accepted ratio fields.
type FieldError struct {
	Index   int
	Want    []string
	Present []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("record %d: none of [%s] present (fields: %s)",
		e.Index, strings.Join(e.Want, ", "), strings.Join(e.Present, ", "))
}

// ConversionError reports a ratio value that is not a finite number.
type ConversionError struct {
	Index int
	Field string
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("record %d: %s=%v is not a number: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Normalize extracts the long ratio of every record as a fraction, oldest first.
// A percent-quoted series is divided by 100 as a whole; individual values are never corrected or clamped.
func Normalize(series exchange.Series, fields []string) ([]float64, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	if len(fields) == 0 {
		fields = DefaultFields
	}

	out := make([]float64, 0, len(series))
	for i, rec := range series {
		field, raw, ok := lookup(rec, fields)
		if !ok {
			return nil, &FieldError{Index: i, Want: fields, Present: rec.Fields()}
		}
		v, err := toFloat(raw)
		if err != nil {
			return nil, &ConversionError{Index: i, Field: field, Value: raw, Err: err}
		}
		out = append(out, v)
	}
	if percentScale(out) {
		for i := range out {
			out[i] /= 100
		}
	}
	return out, nil
}

// percentScale reports whether the series as a whole is quoted in percent. The median decides,
// so one stray value cannot flip the scale of its neighbours.
func percentScale(values []float64) bool {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return median > 1
}

func lookup(rec exchange.Record, fields []string) (string, any, bool) {
	for _, name := range fields {
		if v, ok := rec[name]; ok && v != nil {
			return name, v, true
		}
	}
	return "", nil, false
}

func toFloat(x any) (float64, error) {
	var (
		v   float64
		err error
	)
	switch t := x.(type) {
	case string:
		v, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	case json.Number:
		v, err = t.Float64()
	case float64:
		v = t
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	default:
		return 0, fmt.Errorf("unexpected type %T", x)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return v, nil
}
