package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-forex/catalog"
	"github.com/aluiziolira/go-scrape-forex/config"
	"github.com/aluiziolira/go-scrape-forex/models"
	"github.com/aluiziolira/go-scrape-forex/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newScrapeCmd() *cobra.Command {
	defaults := config.DefaultConfig()
	var (
		configPath  string
		baseURL     string
		granularity string
		displayTZ   string
		targetTZ    string
		detectTZ    bool
		timeout     time.Duration
		output      string
		errorLog    string
		metricsAddr string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Incrementally scrape calendar events into the catalog CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaults
			if configPath != "" {
				loaded, err := config.LoadFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := applyEnv(cfg); err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if flags.Changed("granularity") {
				cfg.Granularity = granularity
			}
			if flags.Changed("display-tz") {
				cfg.DisplayTimezone = displayTZ
			}
			if flags.Changed("target-tz") {
				cfg.TargetTimezone = targetTZ
			}
			if flags.Changed("detect-tz") {
				cfg.DetectTimezone = detectTZ
			}
			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}
			if flags.Changed("output") {
				cfg.OutputFile = output
			}
			if flags.Changed("error-log") {
				cfg.ErrorLogFile = errorLog
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if verbose {
				cfg.Verbose = true
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, level := newLogger(cfg.Verbose)
			slog.SetDefault(logger)
			slog.SetLogLoggerLevel(level.Level())

			return runScrape(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file path")
	cmd.Flags().StringVar(&baseURL, "base-url", defaults.BaseURL, "Calendar site base URL")
	cmd.Flags().StringVar(&granularity, "granularity", defaults.Granularity, "Fetch window size: day, week, or month")
	cmd.Flags().StringVar(&displayTZ, "display-tz", defaults.DisplayTimezone, "Time zone the site renders dates in")
	cmd.Flags().StringVar(&targetTZ, "target-tz", defaults.TargetTimezone, "Time zone records are emitted in")
	cmd.Flags().BoolVar(&detectTZ, "detect-tz", defaults.DetectTimezone, "Detect the display time zone from the site")
	cmd.Flags().DurationVar(&timeout, "timeout", defaults.Timeout, "Per-page fetch timeout")
	cmd.Flags().StringVar(&output, "output", defaults.OutputFile, "Catalog CSV path")
	cmd.Flags().StringVar(&errorLog, "error-log", defaults.ErrorLogFile, "Error side-channel file path")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}

func applyEnv(cfg *config.Config) error {
	if value, ok := config.EnvString("FOREXCAL_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := config.EnvString("FOREXCAL_GRANULARITY"); ok {
		cfg.Granularity = value
	}
	if value, ok := config.EnvString("FOREXCAL_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := config.EnvInt("FOREXCAL_DEDUPE_MAX"); err != nil {
		return err
	} else if ok {
		cfg.DedupeMaxSize = value
	}
	return nil
}

func runScrape(cfg *config.Config) error {
	fetcher, err := scraper.NewPageFetcher(cfg)
	if err != nil {
		return fmt.Errorf("initialising fetcher: %w", err)
	}

	appender, err := catalog.NewAppender(cfg.OutputFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := appender.Close(); err != nil {
			slog.Error("close catalog", slog.Any("error", err))
		}
	}()

	errlog, err := scraper.NewErrorLog(cfg.ErrorLogFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := errlog.Close(); err != nil {
			slog.Error("close error log", slog.Any("error", err))
		}
	}()

	metrics := scraper.NewMetrics()
	driver, err := scraper.NewDriver(cfg, fetcher, appender, errlog, metrics)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current window")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, runErr := driver.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printScrapeSummary(result, cfg.OutputFile)
	if runErr != nil {
		return fmt.Errorf("scraping failed: %w", runErr)
	}
	return nil
}

func printScrapeSummary(result *models.ScrapeResult, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Windows:       %d fetched, %d skipped\n", result.WindowsFetched, result.WindowsSkipped)
	fmt.Printf("  Rows:          %d\n", result.RowsSeen)
	fmt.Printf("  Records:       %d appended\n", result.RecordsAppended)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:      %v\n", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}
