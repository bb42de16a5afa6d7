package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"lsratio-go/internal/config"
	"lsratio-go/internal/console"
	"lsratio-go/internal/dashboard"
	"lsratio-go/internal/exchange"
	"lsratio-go/internal/monitor"
	"lsratio-go/internal/sentiment"
	"lsratio-go/internal/signal"
	"lsratio-go/internal/util"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		showTerm   bool
	)
	cmd := &cobra.Command{
		Use:           "lsratio",
		Short:         "Live long/short account ratio sentiment for Binance futures",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ov, err := config.LoadOverrides()
			if err != nil {
				fmt.Fprintf(os.Stderr, "environment: %v\n", err)
				return err
			}
			if cmd.Flags().Changed("config") {
				ov.ConfigPath = configPath
			}
			if cmd.Flags().Changed("log-level") {
				ov.LogLevel = logLevel
			}

			cfg, err := config.Load(ov.ConfigPath)
			missing := errors.Is(err, fs.ErrNotExist)
			switch {
			case missing:
				cfg = config.Default()
			case err != nil:
				fmt.Fprintf(os.Stderr, "load config: %v\n", err)
				return err
			}
			ov.Apply(cfg)
			if cmd.Flags().Changed("console") {
				cfg.App.Console = showTerm
			}

			log := util.NewLogger(cfg.App.LogLevel).With().Str("app", cfg.App.Name).Str("env", cfg.App.Env).Logger()
			if missing {
				log.Warn().Str("path", ov.ConfigPath).Msg("config file not found, using defaults")
			}
			if err := cfg.Validate(); err != nil {
				log.Error().Err(err).Msg("invalid configuration")
				return err
			}

			ctx, cancel := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("monitor stopped")
				return err
			}
			log.Info().Msg("shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Configuration file path (env LSR_CONFIG)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (env LSR_LOG_LEVEL)")
	cmd.Flags().BoolVar(&showTerm, "console", false, "Also draw the bars in this terminal")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	endpoints := make([]exchange.Endpoint, 0, len(cfg.Exchange.Endpoints))
	for _, ep := range cfg.Exchange.Endpoints {
		endpoints = append(endpoints, exchange.Endpoint{Name: ep.Name, Path: ep.Path})
	}
	fetcher := exchange.NewFetcher(log,
		exchange.WithBaseURL(cfg.Exchange.BaseURL),
		exchange.WithTimeout(cfg.Exchange.Timeout()),
		exchange.WithEndpoints(endpoints...),
		exchange.WithCredentials(cfg.Exchange.APIKey, cfg.Exchange.APISecret),
	)
	pipeline := sentiment.NewPipeline(fetcher, sentiment.Params{
		Period: cfg.Sentiment.Period,
		Limit:  cfg.Sentiment.Limit,
		Span:   cfg.Sentiment.EMASpan,
		Fields: cfg.Sentiment.Fields,
	})

	title := "Long/Short Sentiment (" + strings.Join(cfg.Sentiment.Symbols, ", ") + ")"
	caption := fmt.Sprintf("EMA(%d) of the %s global long/short account ratio", cfg.Sentiment.EMASpan, cfg.Sentiment.Period)

	server := dashboard.NewServer(log, dashboard.WithTitle(title), dashboard.WithCaption(caption))
	renderers := []monitor.Renderer{server}
	if cfg.App.Console {
		renderers = append(renderers, console.New(os.Stdout, console.WithClearScreen(true), console.WithHeader(title, caption)))
	}

	mon := monitor.New(pipeline, cfg.Sentiment.Symbols, log,
		monitor.WithInterval(cfg.Monitor.RefreshInterval()),
		monitor.WithThresholds(signal.Thresholds{Long: cfg.Sentiment.LongThreshold, Short: cfg.Sentiment.ShortThreshold}),
		monitor.WithParallel(cfg.Monitor.Parallel),
		monitor.WithRenderers(renderers...),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe(ctx, cfg.App.ListenAddr)
		cancel()
	}()

	err := mon.Run(ctx)
	cancel()
	if sErr := <-serveErr; sErr != nil {
		return fmt.Errorf("dashboard: %w", sErr)
	}
	return err
}
