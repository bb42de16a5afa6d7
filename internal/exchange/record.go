package exchange

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Record is one raw observation as decoded from the venue (numbers kept as json.Number).
type Record map[string]any

// Series is the ordered oldest→newest list returned for a symbol.
type Series []Record

// Fields returns the record's keys sorted for stable diagnostics.
func (r Record) Fields() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Time reads the optional millisecond "timestamp" field.
func (r Record) Time() (time.Time, bool) {
	var ms int64
	switch v := r["timestamp"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		ms = n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		ms = n
	case float64:
		ms = int64(v)
	default:
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// Latest returns the newest record, if any.
func (s Series) Latest() (Record, bool) {
	if len(s) == 0 {
		return nil, false
	}
	return s[len(s)-1], true
}
