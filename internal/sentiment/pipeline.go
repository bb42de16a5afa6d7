package sentiment

import (
	"context"
	"fmt"

	"lsratio-go/internal/exchange"
	"lsratio-go/internal/signal"
)

// Source yields the raw ratio series for one symbol.
type Source interface {
	Fetch(ctx context.Context, symbol, period string, limit int) (exchange.Series, error)
}

// Params groups the pipeline knobs.
type Params struct {
	Period string
	Limit  int
	Span   int
	Fields []string
}

// DefaultParams mirrors the venue's 4h bucket with a ~7 day smoothing horizon.
var DefaultParams = Params{Period: "4h", Limit: 100, Span: DefaultSpan, Fields: DefaultFields}

// Pipeline runs fetch → normalize → smooth → reduce for one symbol at a time. It keeps no state between calls.
type Pipeline struct {
	source Source
	params Params
}

// NewPipeline fills zero params from DefaultParams.
func NewPipeline(source Source, params Params) *Pipeline {
	if params.Period == "" {
		params.Period = DefaultParams.Period
	}
	if params.Limit <= 0 {
		params.Limit = DefaultParams.Limit
	}
	if params.Span <= 0 {
		params.Span = DefaultParams.Span
	}
	if len(params.Fields) == 0 {
		params.Fields = DefaultParams.Fields
	}
	return &Pipeline{source: source, params: params}
}

// Evaluate always returns a usable reading; on failure it is the neutral fallback and err is non-nil.
func (p *Pipeline) Evaluate(ctx context.Context, symbol string) (signal.Reading, error) {
	series, err := p.source.Fetch(ctx, symbol, p.params.Period, p.params.Limit)
	if err != nil {
		return signal.Fallback(symbol, err), err
	}
	if len(series) == 0 {
		err := fmt.Errorf("fetch %s: %w", symbol, ErrEmptySeries)
		return signal.Fallback(symbol, err), err
	}

	ratios, err := Normalize(series, p.params.Fields)
	if err != nil {
		err = fmt.Errorf("normalize %s: %w", symbol, err)
		return signal.Fallback(symbol, err), err
	}
	smoothed, err := Smooth(ratios, p.params.Span)
	if err != nil {
		err = fmt.Errorf("smooth %s: %w", symbol, err)
		return signal.Fallback(symbol, err), err
	}

	long, short := Reduce(smoothed)
	reading := signal.Reading{
		Symbol:   symbol,
		LongPct:  long,
		ShortPct: short,
		Samples:  len(ratios),
	}
	if latest, ok := series.Latest(); ok {
		if ts, ok := latest.Time(); ok {
			reading.AsOf = ts
		}
	}
	return reading, nil
}
