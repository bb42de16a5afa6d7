// Package signal standardizes the per-symbol readings handed from the pipeline to renderers.
package signal

import "time"

// NeutralPct is substituted for both sides when a reading could not be computed.
const NeutralPct = 50.0

// Classification buckets a reading for the status banner.
type Classification string

const (
	// Neutral shows no banner.
	Neutral Classification = "neutral"
	// ExtremeLong flags crowded longs (contrarian bearish).
	ExtremeLong Classification = "extreme_long"
	// ExtremeShort flags crowded shorts (contrarian bullish).
	ExtremeShort Classification = "extreme_short"
	// Unavailable marks a reading that fell back to neutral because of an error.
	Unavailable Classification = "unavailable"
)

// Banner is the operator-facing status text; empty for Neutral.
func (c Classification) Banner() string {
	switch c {
	case ExtremeLong:
		return "Extreme long (contrarian warning)"
	case ExtremeShort:
		return "Extreme short (contrarian warning)"
	case Unavailable:
		return "API error"
	default:
		return ""
	}
}

// Reading is the pipeline output for one symbol in one tick.
type Reading struct {
	Symbol   string         `json:"symbol"`
	LongPct  float64        `json:"long_pct"`
	ShortPct float64        `json:"short_pct"`
	Err      string         `json:"error,omitempty"`
	Class    Classification `json:"classification"`
	Samples  int            `json:"samples"`
	AsOf     time.Time      `json:"as_of"`
}

// OK reports whether the reading carries real data.
func (r Reading) OK() bool { return r.Err == "" }

// Fallback builds the neutral 50/50 reading carrying err's text verbatim.
func Fallback(symbol string, err error) Reading {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Reading{
		Symbol:   symbol,
		LongPct:  NeutralPct,
		ShortPct: NeutralPct,
		Err:      msg,
		Class:    Unavailable,
	}
}

// Thresholds are the inclusive long/short cut-offs for the extreme banners.
type Thresholds struct {
	Long  float64
	Short float64
}

// DefaultThresholds are symmetric around 50.
var DefaultThresholds = Thresholds{Long: 65, Short: 35}

// Classify buckets r; errored readings are always Unavailable.
func (t Thresholds) Classify(r Reading) Classification {
	if !r.OK() {
		return Unavailable
	}
	switch {
	case r.LongPct >= t.Long:
		return ExtremeLong
	case r.LongPct <= t.Short:
		return ExtremeShort
	default:
		return Neutral
	}
}
