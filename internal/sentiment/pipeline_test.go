package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lsratio-go/internal/exchange"
	"lsratio-go/internal/signal"
)

type stubSource struct {
	series exchange.Series
	err    error
	calls  []string
}

func (s *stubSource) Fetch(_ context.Context, symbol, period string, limit int) (exchange.Series, error) {
	s.calls = append(s.calls, fmt.Sprintf("%s/%s/%d", symbol, period, limit))
	return s.series, s.err
}

func linearSeries(n int, from, to float64, field string) []map[string]any {
	out := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		v := from + (to-from)*float64(i)/float64(n-1)
		out[i] = map[string]any{
			"symbol":    "BTCUSDT",
			field:       fmt.Sprintf("%.4f", v),
			"timestamp": 1700000000000 + int64(i)*4*3600*1000,
		}
	}
	return out
}

func TestEvaluateLinearRampEndToEnd(t *testing.T) {
	body, err := json.Marshal(linearSeries(50, 0.40, 0.70, "longAccount"))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/futures/data/globalLongShortAccountRatio", r.URL.Path)
		assert.Equal(t, "4h", r.URL.Query().Get("period"))
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	p := NewPipeline(exchange.NewFetcher(zerolog.Nop(), exchange.WithBaseURL(srv.URL)), Params{})
	reading, err := p.Evaluate(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.True(t, reading.OK())
	assert.Greater(t, reading.LongPct, 50.0)
	assert.Less(t, reading.LongPct, 70.0)
	assert.Equal(t, 58.67, reading.LongPct)
	assert.Equal(t, 41.33, reading.ShortPct)
	assert.InDelta(t, 100.0, reading.LongPct+reading.ShortPct, 0.01)
	assert.Equal(t, 50, reading.Samples)
	assert.False(t, reading.AsOf.IsZero())
	assert.Equal(t, signal.Neutral, signal.DefaultThresholds.Classify(reading))
}

func TestEvaluateUsesConfiguredParams(t *testing.T) {
	src := &stubSource{series: exchange.Series{{"longAccountRatio": "0.7"}}}
	p := NewPipeline(src, Params{Period: "1h", Limit: 30, Span: 10})
	reading, err := p.Evaluate(context.Background(), "SOLUSDT")
	require.NoError(t, err)
	assert.Equal(t, []string{"SOLUSDT/1h/30"}, src.calls)
	assert.Equal(t, 70.0, reading.LongPct)
	assert.Equal(t, 30.0, reading.ShortPct)
	assert.Equal(t, signal.ExtremeLong, signal.DefaultThresholds.Classify(reading))
}

func TestEvaluateFallsBackOnEveryStage(t *testing.T) {
	fetchErr := &exchange.FetchError{Symbol: "BTCUSDT", Err: errors.New("dial tcp: refused")}
	cases := map[string]struct {
		src    *stubSource
		target any
	}{
		"fetch":   {src: &stubSource{err: fetchErr}, target: new(*exchange.FetchError)},
		"empty":   {src: &stubSource{series: exchange.Series{}}},
		"field":   {src: &stubSource{series: exchange.Series{{"shortAccount": "0.4"}}}, target: new(*FieldError)},
		"convert": {src: &stubSource{series: exchange.Series{{"longAccount": "abc"}}}, target: new(*ConversionError)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			reading, err := NewPipeline(tc.src, DefaultParams).Evaluate(context.Background(), "BTCUSDT")
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorAs(t, err, tc.target)
			}
			assert.Equal(t, signal.NeutralPct, reading.LongPct)
			assert.Equal(t, signal.NeutralPct, reading.ShortPct)
			assert.Equal(t, err.Error(), reading.Err)
			assert.Equal(t, signal.Unavailable, reading.Class)
		})
	}
}
