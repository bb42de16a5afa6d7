// Package exchange hosts the REST connector for the venue's long/short account ratio data.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"lsratio-go/internal/metrics"
)

// Endpoint is one candidate path that serves the ratio series. Candidates are tried in order.
type Endpoint struct {
	Name string
	Path string
}

const (
	defaultBaseURL = "https://fapi.binance.com"
	defaultTimeout = 8 * time.Second
)

// DefaultEndpoints lists the current path first and the older spelling second.
var DefaultEndpoints = []Endpoint{
	{Name: "globalLongShortAccountRatio", Path: "/futures/data/globalLongShortAccountRatio"},
	{Name: "longShortAccountRatio", Path: "/futures/data/longShortAccountRatio"},
}

// Fetcher pulls ratio series over REST.
type Fetcher struct {
	client    *resty.Client
	endpoints []Endpoint
	log       zerolog.Logger

	baseURL    string
	timeout    time.Duration
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// Option configures Fetcher construction parameters.
type Option func(*Fetcher)

// WithBaseURL points the fetcher at another host (testnet, mock server).
func WithBaseURL(baseURL string) Option {
	return func(f *Fetcher) {
		if baseURL != "" {
			f.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithEndpoints replaces the candidate list.
func WithEndpoints(endpoints ...Endpoint) Option {
	return func(f *Fetcher) {
		if len(endpoints) > 0 {
			f.endpoints = append([]Endpoint(nil), endpoints...)
		}
	}
}

// WithCredentials attaches an API key header. The secret is kept for signed calls but the ratio endpoint is public.
func WithCredentials(key, secret string) Option {
	return func(f *Fetcher) {
		f.apiKey = key
		f.apiSecret = secret
	}
}

// WithHTTPClient injects the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = hc
	}
}

// NewFetcher constructs a fetcher against the public futures host.
func NewFetcher(log zerolog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		endpoints: DefaultEndpoints,
		log:       log,
		baseURL:   defaultBaseURL,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient != nil {
		f.client = resty.NewWithClient(f.httpClient)
	} else {
		f.client = resty.New()
	}
	f.client.SetBaseURL(f.baseURL)
	f.client.SetTimeout(f.timeout)
	f.client.SetLogger(restyLogger{log: log})
	f.client.SetHeader("Accept", "application/json")
	f.client.SetHeader("User-Agent", "lsratio-go/1.0")
	if f.apiKey != "" {
		f.client.SetHeader("X-MBX-APIKEY", f.apiKey)
	}
	return f
}

// Fetch returns the ratio series for symbol. The next endpoint is tried only when the previous one is
// unsupported; every other failure is final for this call.
func (f *Fetcher) Fetch(ctx context.Context, symbol, period string, limit int) (Series, error) {
	if symbol == "" {
		return nil, &FetchError{Err: fmt.Errorf("symbol required")}
	}

	var tried []string
	for i, ep := range f.endpoints {
		tried = append(tried, ep.Name)
		series, err := f.fetchFrom(ctx, ep, symbol, period, limit)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				metrics.FetchTotal.WithLabelValues(symbol, ep.Name, "unsupported").Inc()
				if i < len(f.endpoints)-1 {
					f.log.Debug().Str("symbol", symbol).Str("method", ep.Name).Err(err).Msg("endpoint unsupported, trying next")
					continue
				}
				return nil, &FetchError{Symbol: symbol, Method: strings.Join(tried, ","), Err: err}
			}
			metrics.FetchTotal.WithLabelValues(symbol, ep.Name, "error").Inc()
			return nil, &FetchError{Symbol: symbol, Method: ep.Name, Err: err}
		}
		if len(series) == 0 {
			metrics.FetchTotal.WithLabelValues(symbol, ep.Name, "empty").Inc()
			return nil, &FetchError{Symbol: symbol, Method: ep.Name, Err: ErrEmptySeries}
		}
		metrics.FetchTotal.WithLabelValues(symbol, ep.Name, "ok").Inc()
		return series, nil
	}
	return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("no endpoints configured")}
}

func (f *Fetcher) fetchFrom(ctx context.Context, ep Endpoint, symbol, period string, limit int) (Series, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"period": period,
			"limit":  strconv.Itoa(limit),
		}).
		Get(ep.Path)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode(), body)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var series Series
	if err := dec.Decode(&series); err != nil {
		// some gateways answer 200 with an error object
		if apiErr := decodeAPIError(resp.StatusCode(), body); apiErr.Code != 0 {
			return nil, apiErr
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return series, nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Code == 0 && apiErr.Msg == "") {
		apiErr.Code = 0
		apiErr.Msg = truncate(strings.TrimSpace(string(body)), 200)
	}
	apiErr.Status = status
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type restyLogger struct{ log zerolog.Logger }

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
