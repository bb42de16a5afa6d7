// Package monitor drives the sentiment pipeline on a fixed cadence and fans snapshots out to renderers.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lsratio-go/internal/metrics"
	"lsratio-go/internal/signal"
)

const defaultInterval = 10 * time.Second

// Evaluator computes one symbol's reading. It must always return a usable reading.
type Evaluator interface {
	Evaluate(ctx context.Context, symbol string) (signal.Reading, error)
}

// Renderer consumes every completed tick.
type Renderer interface {
	Render(ctx context.Context, snap Snapshot) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, snap Snapshot) error

func (f RendererFunc) Render(ctx context.Context, snap Snapshot) error { return f(ctx, snap) }

// Snapshot is the ordered result of one tick.
type Snapshot struct {
	Tick       uint64           `json:"tick"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Readings   []signal.Reading `json:"readings"`
}

// Monitor runs ticks until its context is cancelled.
type Monitor struct {
	eval       Evaluator
	symbols    []string
	log        zerolog.Logger
	interval   time.Duration
	thresholds signal.Thresholds
	parallel   bool
	renderers  []Renderer
	now        func() time.Time
	tick       uint64
}

// Option configures Monitor construction parameters.
type Option func(*Monitor)

// WithInterval sets the pause between the end of one tick and the start of the next.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithThresholds overrides the extreme-positioning cut-offs.
func WithThresholds(t signal.Thresholds) Option {
	return func(m *Monitor) { m.thresholds = t }
}

// WithParallel evaluates the symbols of a tick concurrently; output order is unchanged.
func WithParallel(enabled bool) Option {
	return func(m *Monitor) { m.parallel = enabled }
}

// WithRenderers appends snapshot consumers.
func WithRenderers(renderers ...Renderer) Option {
	return func(m *Monitor) {
		for _, r := range renderers {
			if r != nil {
				m.renderers = append(m.renderers, r)
			}
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// New builds a monitor over a fixed, ordered symbol list.
func New(eval Evaluator, symbols []string, log zerolog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		eval:       eval,
		symbols:    append([]string(nil), symbols...),
		log:        log,
		interval:   defaultInterval,
		thresholds: signal.DefaultThresholds,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run ticks, publishes, and waits the interval, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().Strs("symbols", m.symbols).Dur("interval", m.interval).Bool("parallel", m.parallel).Msg("monitor started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap := m.Tick(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		m.publish(ctx, snap)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.interval):
		}
	}
}

// Tick evaluates every symbol once. A failing symbol never affects the others.
func (m *Monitor) Tick(ctx context.Context) Snapshot {
	m.tick++
	snap := Snapshot{Tick: m.tick, StartedAt: m.now()}
	started := time.Now()

	readings := make([]signal.Reading, len(m.symbols))
	if m.parallel {
		var wg sync.WaitGroup
		for i, sym := range m.symbols {
			wg.Add(1)
			go func(i int, sym string) {
				defer wg.Done()
				readings[i] = m.evaluate(ctx, sym)
			}(i, sym)
		}
		wg.Wait()
	} else {
		for i, sym := range m.symbols {
			readings[i] = m.evaluate(ctx, sym)
		}
	}

	failed := 0
	for i := range readings {
		r := &readings[i]
		r.Class = m.thresholds.Classify(*r)
		if !r.OK() {
			failed++
			metrics.ReadingErrors.WithLabelValues(r.Symbol).Inc()
			metrics.LongPct.DeleteLabelValues(r.Symbol)
			continue
		}
		metrics.LongPct.WithLabelValues(r.Symbol).Set(r.LongPct)
	}

	snap.Readings = readings
	snap.FinishedAt = m.now()
	metrics.TicksTotal.Inc()
	metrics.TickSeconds.Observe(time.Since(started).Seconds())
	m.log.Info().Uint64("tick", snap.Tick).Int("symbols", len(readings)).Int("failed", failed).
		Dur("took", time.Since(started)).Msg("tick complete")
	return snap
}

func (m *Monitor) evaluate(ctx context.Context, symbol string) (reading signal.Reading) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("pipeline panic: %v", rec)
			m.log.Error().Str("symbol", symbol).Err(err).Msg("reading failed")
			reading = signal.Fallback(symbol, err)
		}
	}()

	reading, err := m.eval.Evaluate(ctx, symbol)
	if err != nil {
		m.log.Warn().Str("symbol", symbol).Err(err).Msg("reading failed")
		if reading.OK() || reading.Symbol == "" {
			reading = signal.Fallback(symbol, err)
		}
		return reading
	}
	m.log.Debug().Str("symbol", symbol).Float64("long_pct", reading.LongPct).Float64("short_pct", reading.ShortPct).
		Int("samples", reading.Samples).Msg("reading")
	return reading
}

func (m *Monitor) publish(ctx context.Context, snap Snapshot) {
	for _, r := range m.renderers {
		if err := r.Render(ctx, snap); err != nil {
			m.log.Warn().Err(err).Uint64("tick", snap.Tick).Msg("render failed")
		}
	}
}
