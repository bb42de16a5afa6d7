package exchange

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnsupported marks an endpoint the venue does not serve (unknown path or method).
	ErrUnsupported = errors.New("endpoint not supported")
	// ErrEmptySeries is returned when the venue answers with zero records.
	ErrEmptySeries = errors.New("empty ratio series")
)

// binance error code for "path not found" on the futures data host.
const codePathNotFound = -5000

// APIError carries a non-200 answer from the venue.
type APIError struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("status %d code %d: %s", e.Status, e.Code, e.Msg)
	}
	if e.Msg != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// Is lets errors.Is(err, ErrUnsupported) match missing endpoints without matching other HTTP failures.
func (e *APIError) Is(target error) bool {
	if target != ErrUnsupported {
		return false
	}
	switch e.Status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return e.Code == codePathNotFound
}

// FetchError wraps any failure to obtain a series for one symbol.
type FetchError struct {
	Symbol string
	Method string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("fetch %s via %s: %v", e.Symbol, e.Method, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
