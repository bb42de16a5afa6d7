package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const ratioBody = `[
	{"symbol":"BTCUSDT","longShortRatio":"1.4342","longAccount":"0.5891","shortAccount":"0.4109","timestamp":1583139600000},
	{"symbol":"BTCUSDT","longShortRatio":"1.4337","longAccount":"0.5890","shortAccount":"0.4110","timestamp":1583154000000}
]`

func TestFetchPrimaryEndpoint(t *testing.T) {
	var gotQuery, gotKey string
	mux := http.NewServeMux()
	mux.HandleFunc("/futures/data/globalLongShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("X-MBX-APIKEY")
		_, _ = w.Write([]byte(ratioBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL), WithCredentials("k123", "s456"))
	series, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 records, got %d", len(series))
	}
	if gotQuery != "limit=100&period=4h&symbol=BTCUSDT" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if gotKey != "k123" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if v, ok := series[0]["longAccount"].(string); !ok || v != "0.5891" {
		t.Fatalf("expected string longAccount, got %#v", series[0]["longAccount"])
	}
	if _, ok := series[0]["timestamp"].(json.Number); !ok {
		t.Fatalf("expected json.Number timestamp, got %#v", series[0]["timestamp"])
	}
	latest, _ := series.Latest()
	ts, ok := latest.Time()
	if !ok || !ts.Equal(time.UnixMilli(1583154000000)) {
		t.Fatalf("unexpected latest timestamp %v (%v)", ts, ok)
	}
}

func TestFetchFallsBackOnceWhenUnsupported(t *testing.T) {
	var primary, secondary int32
	mux := http.NewServeMux()
	mux.HandleFunc("/futures/data/globalLongShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&primary, 1)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/futures/data/longShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&secondary, 1)
		_, _ = w.Write([]byte(`[{"longAccountRatio":"0.61"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL))
	series, err := f.Fetch(context.Background(), "ETHUSDT", "4h", 100)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(series) != 1 {
		t.Fatalf("expected 1 record, got %d", len(series))
	}
	if primary != 1 || secondary != 1 {
		t.Fatalf("expected one call per endpoint, got primary=%d secondary=%d", primary, secondary)
	}
}

func TestFetchFallsBackOnPathNotFoundCode(t *testing.T) {
	var secondary int32
	mux := http.NewServeMux()
	mux.HandleFunc("/futures/data/globalLongShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-5000,"msg":"Path not found"}`))
	})
	mux.HandleFunc("/futures/data/longShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&secondary, 1)
		_, _ = w.Write([]byte(ratioBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL))
	if _, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if secondary != 1 {
		t.Fatalf("expected fallback call, got %d", secondary)
	}
}

func TestFetchDoesNotFallBackOnOtherErrors(t *testing.T) {
	var secondary int32
	mux := http.NewServeMux()
	mux.HandleFunc("/futures/data/globalLongShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})
	mux.HandleFunc("/futures/data/longShortAccountRatio", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&secondary, 1)
		_, _ = w.Write([]byte(ratioBody))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL))
	_, err := f.Fetch(context.Background(), "NOPEUSDT", "4h", 100)
	if err == nil {
		t.Fatalf("expected error")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Symbol != "NOPEUSDT" {
		t.Fatalf("expected FetchError for NOPEUSDT, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != -1121 || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected APIError -1121, got %v", err)
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatalf("invalid symbol must not be classified as unsupported")
	}
	if secondary != 0 {
		t.Fatalf("secondary endpoint must not be called, got %d", secondary)
	}
}

func TestFetchBothUnsupported(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL))
	_, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly two attempts, got %d", calls)
	}
}

func TestFetchEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL))
	_, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100)
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL))
	_, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
	start := time.Now()
	_, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("request was not bounded by timeout")
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewFetcher(zerolog.Nop(), WithBaseURL(url))
	_, err := f.Fetch(context.Background(), "BTCUSDT", "4h", 100)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Method != "globalLongShortAccountRatio" {
		t.Fatalf("expected FetchError from primary endpoint, got %v", err)
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatalf("transport error must not trigger fallback")
	}
}

func TestAPIErrorIsUnsupported(t *testing.T) {
	cases := []struct {
		err  *APIError
		want bool
	}{
		{&APIError{Status: http.StatusNotFound}, true},
		{&APIError{Status: http.StatusMethodNotAllowed}, true},
		{&APIError{Status: http.StatusNotImplemented}, true},
		{&APIError{Status: http.StatusBadRequest, Code: -5000}, true},
		{&APIError{Status: http.StatusBadRequest, Code: -1121}, false},
		{&APIError{Status: http.StatusTooManyRequests}, false},
		{&APIError{Status: http.StatusInternalServerError}, false},
	}
	for _, tc := range cases {
		if got := errors.Is(tc.err, ErrUnsupported); got != tc.want {
			t.Fatalf("%v: expected unsupported=%v", tc.err, tc.want)
		}
	}
}
