package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a setting that prevents the monitor from starting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// MinRefreshIntervalMs is the shortest allowed pause between two ticks.
const MinRefreshIntervalMs = 10000

var supportedPeriods = map[string]struct{}{
	"5m": {}, "15m": {}, "30m": {}, "1h": {}, "2h": {}, "4h": {}, "6h": {}, "12h": {}, "1d": {},
}

// Validate normalizes symbols in place and rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	symbols, err := normalizeSymbols(c.Sentiment.Symbols)
	if err != nil {
		return err
	}
	c.Sentiment.Symbols = symbols

	if _, ok := supportedPeriods[c.Sentiment.Period]; !ok {
		return &ConfigurationError{Field: "sentiment.period", Reason: fmt.Sprintf("unsupported period %q", c.Sentiment.Period)}
	}
	if c.Sentiment.Limit <= 0 || c.Sentiment.Limit > 500 {
		return &ConfigurationError{Field: "sentiment.limit", Reason: fmt.Sprintf("must be in 1..500, got %d", c.Sentiment.Limit)}
	}
	if c.Sentiment.EMASpan <= 0 {
		return &ConfigurationError{Field: "sentiment.ema_span", Reason: fmt.Sprintf("must be positive, got %d", c.Sentiment.EMASpan)}
	}
	if len(c.Sentiment.Fields) == 0 {
		return &ConfigurationError{Field: "sentiment.fields", Reason: "at least one ratio field name is required"}
	}
	if c.Sentiment.ShortThreshold >= c.Sentiment.LongThreshold {
		return &ConfigurationError{
			Field:  "sentiment.short_threshold",
			Reason: fmt.Sprintf("%.2f must be below long_threshold %.2f", c.Sentiment.ShortThreshold, c.Sentiment.LongThreshold),
		}
	}
	if c.Monitor.RefreshIntervalMs < MinRefreshIntervalMs {
		return &ConfigurationError{
			Field:  "monitor.refresh_interval_ms",
			Reason: fmt.Sprintf("must be at least %d to respect upstream rate limits, got %d", MinRefreshIntervalMs, c.Monitor.RefreshIntervalMs),
		}
	}
	if c.Exchange.TimeoutMs <= 0 {
		return &ConfigurationError{Field: "exchange.timeout_ms", Reason: "must be positive"}
	}
	if strings.TrimSpace(c.Exchange.BaseURL) == "" {
		return &ConfigurationError{Field: "exchange.base_url", Reason: "required"}
	}
	if len(c.Exchange.Endpoints) == 0 {
		return &ConfigurationError{Field: "exchange.endpoints", Reason: "at least one endpoint is required"}
	}
	for i, ep := range c.Exchange.Endpoints {
		if ep.Name == "" || !strings.HasPrefix(ep.Path, "/") {
			return &ConfigurationError{Field: fmt.Sprintf("exchange.endpoints[%d]", i), Reason: "name and absolute path required"}
		}
	}
	return nil
}

// normalizeSymbols sanitizes every entry and drops duplicates while keeping the configured order.
func normalizeSymbols(symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return nil, &ConfigurationError{Field: "sentiment.symbols", Reason: "empty symbol list"}
	}
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for i, raw := range symbols {
		sym := sanitizeSymbol(raw)
		if sym == "" {
			return nil, &ConfigurationError{Field: fmt.Sprintf("sentiment.symbols[%d]", i), Reason: fmt.Sprintf("invalid symbol %q", raw)}
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out, nil
}

func sanitizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(symbol))
	for _, r := range symbol {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if r >= 'a' && r <= 'z' {
				r -= 32
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
