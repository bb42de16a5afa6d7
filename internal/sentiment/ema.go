package sentiment

// DefaultSpan covers roughly seven days of 4h buckets.
const DefaultSpan = 42

// EMA is an exponential moving average seeded with its first sample (no bias adjustment).
type EMA struct {
	alpha  float64
	value  float64
	seeded bool
	count  int
}

// NewEMA uses alpha = 2/(span+1); span below 1 disables smoothing.
func NewEMA(span int) *EMA {
	if span < 1 {
		span = 1
	}
	return &EMA{alpha: 2.0 / (float64(span) + 1)}
}

// Update folds x into the average and returns the new value.
func (e *EMA) Update(x float64) float64 {
	e.count++
	if !e.seeded {
		e.value = x
		e.seeded = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

func (e *EMA) Value() float64 { return e.value }
func (e *EMA) Count() int     { return e.count }

// Smooth recomputes the EMA over the whole window and returns the last value as a percentage rounded to 2 places.
func Smooth(ratios []float64, span int) (float64, error) {
	if len(ratios) == 0 {
		return 0, ErrEmptySeries
	}
	ema := NewEMA(span)
	for _, r := range ratios {
		ema.Update(r)
	}
	return Round2(ema.Value() * 100), nil
}
