package sentiment

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// exactDigits is enough to tell a value below a .xx5 tie from the tie itself for any float in [0, 100].
const exactDigits = 30

// Round2 rounds the exact binary value of v to two decimals, ties to even.
// 2.675 is stored as 2.67499... and becomes 2.67; 0.125 is a true tie and becomes 0.12.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := round2(v).Float64()
	return f
}

func round2(v float64) decimal.Decimal {
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	if err != nil {
		d = decimal.NewFromFloat(v)
	}
	return d.RoundBank(2)
}

// Reduce splits the smoothed long percentage into the displayed long/short pair.
// short is derived in decimal so the pair sums to exactly 100 before conversion.
func Reduce(smoothedLongPct float64) (long, short float64) {
	if math.IsNaN(smoothedLongPct) || math.IsInf(smoothedLongPct, 0) {
		return smoothedLongPct, smoothedLongPct
	}
	l := round2(smoothedLongPct)
	s := hundred.Sub(l)
	long, _ = l.Float64()
	short, _ = s.Float64()
	return long, short
}
