package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"lsratio-go/internal/config"
)

func main() {
	ov, err := config.LoadOverrides()
	if err != nil {
		fmt.Fprintf(os.Stderr, "environment: %v\n", err)
		os.Exit(1)
	}
	path := ov.ConfigPath

	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := menu(bufio.NewReader(os.Stdin), os.Stdout, path, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func menu(reader *bufio.Reader, out io.Writer, path string, cfg *config.Config) error {
	for {
		fmt.Fprintln(out, "\n=== Long/Short Monitor Setup ===")
		fmt.Fprintln(out, "1) Show configuration summary")
		fmt.Fprintln(out, "2) Edit symbols")
		fmt.Fprintln(out, "3) Edit smoothing and thresholds")
		fmt.Fprintln(out, "4) Edit refresh cadence")
		fmt.Fprintln(out, "5) Save config")
		fmt.Fprintln(out, "6) Reload config from disk")
		fmt.Fprintln(out, "0) Exit")
		fmt.Fprint(out, "Select option: ")

		input, err := reader.ReadString('\n')
		if err != nil && strings.TrimSpace(input) == "" {
			return nil
		}

		switch strings.TrimSpace(input) {
		case "1":
			printSummary(out, cfg)
		case "2":
			editSymbols(reader, out, cfg)
		case "3":
			editSentiment(reader, out, cfg)
		case "4":
			editMonitor(reader, out, cfg)
		case "5":
			if err := saveConfig(path, cfg); err != nil {
				fmt.Fprintf(out, "save failed: %v\n", err)
			} else {
				fmt.Fprintln(out, "config saved")
			}
		case "6":
			reloaded, err := loadConfig(path)
			if err != nil {
				fmt.Fprintf(out, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Fprintln(out, "config reloaded")
			}
		case "0":
			return nil
		default:
			fmt.Fprintln(out, "unknown option")
		}
	}
}

func printSummary(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "\n--- Configuration Summary ---")
	fmt.Fprintln(out, "Symbols:", strings.Join(cfg.Sentiment.Symbols, ", "))
	fmt.Fprintf(out, "Period: %s | limit: %d | EMA span: %d\n", cfg.Sentiment.Period, cfg.Sentiment.Limit, cfg.Sentiment.EMASpan)
	fmt.Fprintf(out, "Extreme long >= %.2f%% | extreme short <= %.2f%%\n", cfg.Sentiment.LongThreshold, cfg.Sentiment.ShortThreshold)
	fmt.Fprintf(out, "Refresh every %s (parallel: %t)\n", cfg.Monitor.RefreshInterval(), cfg.Monitor.Parallel)
	fmt.Fprintf(out, "Dashboard on %s | console: %t\n", cfg.App.ListenAddr, cfg.App.Console)
}

func editSymbols(reader *bufio.Reader, out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "\n--- Edit Symbols ---")
	fmt.Fprintf(out, "Current symbols: %s\n", strings.Join(cfg.Sentiment.Symbols, ", "))
	fmt.Fprint(out, "Enter symbols comma-separated (blank to keep): ")
	line, _ := reader.ReadString('\n')
	if strings.TrimSpace(line) == "" {
		return
	}
	var symbols []string
	for _, p := range strings.Split(strings.TrimSpace(line), ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	cfg.Sentiment.Symbols = symbols
}

func editSentiment(reader *bufio.Reader, out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "\n--- Edit Smoothing / Thresholds ---")
	cfg.Sentiment.EMASpan = int(promptFloat(reader, out, "EMA span (samples)", float64(cfg.Sentiment.EMASpan)))
	cfg.Sentiment.LongThreshold = promptFloat(reader, out, "Extreme long threshold (%)", cfg.Sentiment.LongThreshold)
	cfg.Sentiment.ShortThreshold = promptFloat(reader, out, "Extreme short threshold (%)", cfg.Sentiment.ShortThreshold)
}

func editMonitor(reader *bufio.Reader, out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "\n--- Edit Refresh Cadence ---")
	secs := promptFloat(reader, out, "Refresh interval (seconds)", cfg.Monitor.RefreshInterval().Seconds())
	cfg.Monitor.RefreshIntervalMs = int(secs * 1000)
}

func promptFloat(reader *bufio.Reader, out io.Writer, label string, current float64) float64 {
	fmt.Fprintf(out, "%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Fprintf(out, "invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

// loadConfig starts from the defaults when the file does not exist yet.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// saveConfig refuses to write a configuration the monitor would reject.
func saveConfig(path string, cfg *config.Config) error {
	candidate := *cfg
	candidate.Sentiment.Symbols = append([]string(nil), cfg.Sentiment.Symbols...)
	if err := candidate.Validate(); err != nil {
		return err
	}
	*cfg = candidate
	return config.Save(path, cfg)
}
