// Package main provides the wave forecast generator.
//
// Each run downloads the WW3 global forecast files for one model cycle, samples the
// nearest grid point for every configured location and writes one JSON series per
// location to the output directory. By default it runs once; with SCHEDULE set it
// keeps running and regenerates on the cron schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go.ngs.io/wave-forecasts/internal/adapter/decoder"
	"go.ngs.io/wave-forecasts/internal/adapter/fetch"
	"go.ngs.io/wave-forecasts/internal/adapter/store/series"
	"go.ngs.io/wave-forecasts/internal/config"
	"go.ngs.io/wave-forecasts/internal/logger"
	"go.ngs.io/wave-forecasts/internal/metrics"
	"go.ngs.io/wave-forecasts/internal/scheduler"
	"go.ngs.io/wave-forecasts/internal/usecase"
)

const (
	version     = "0.1.0"
	metricsJob  = "wave_forecasts"
	pushTimeout = 30 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	for _, a := range args {
		if a == "-version" || a == "--version" {
			fmt.Printf("wave-forecasts version %s\n", version)
			return 0
		}
	}

	cfg, err := config.Load(args)
	if errors.Is(err, flag.ErrHelp) {
		printUsage()
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(log)

	log.Info("starting wave forecast generator",
		"version", version,
		"product", cfg.Product(),
		"base_url", cfg.BaseURL,
		"cycle", cfg.Cycle,
		"hours", fmt.Sprintf("%d..%d/%d", cfg.HourStart, cfg.HourEnd, cfg.HourStep),
		"locations", len(cfg.Locations),
		"output_dir", cfg.OutputDir,
		"decoder", cfg.Decoder,
	)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	fetcher := fetch.NewHTTPFetcher(fetch.Config{
		Client:          &http.Client{Timeout: cfg.HTTPTimeout},
		BreakerFailures: uint32(cfg.BreakerFailures),
	})
	assembler := usecase.NewAssembler(fetcher, newDecoder(cfg), log, m)
	store := series.NewStore(cfg.OutputDir)

	// A signal stops the scheduler between runs. A run in progress always finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx := context.WithoutCancel(ctx)

	generate := func(ctx context.Context, c *config.Config) error {
		runSpec, err := c.RunSpec()
		if err != nil {
			return err
		}
		result, err := usecase.GenerateForecasts(ctx, assembler, store, runSpec, c.LocationSpecs())
		if err != nil {
			return err
		}
		if result.SuccessfulHours() == 0 {
			log.Warn("no forecast hours could be processed", "product", runSpec.Product())
		}
		log.Info("series written", "dir", store.Dir(), "files", len(result.Series))

		if c.PushgatewayURL != "" {
			pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			defer cancel()
			if err := m.Push(pushCtx, c.PushgatewayURL, metricsJob); err != nil {
				log.Warn("metrics push failed", "error", err)
			}
		}
		return nil
	}

	if cfg.Schedule == "" {
		if err := generate(runCtx, cfg); err != nil {
			log.Error("forecast run failed", "error", err)
			return 1
		}
		return 0
	}

	sched := scheduler.New(cfg.Schedule, func(ctx context.Context, firedAt time.Time) {
		c := cfg
		if !cfg.RunDateFixed {
			c = cfg.ForDate(firedAt)
		}
		if err := generate(ctx, c); err != nil {
			log.Error("forecast run failed", "error", err)
		}
	}, log)
	if err := sched.Start(runCtx); err != nil {
		log.Error("failed to start scheduler", "error", err)
		return 2
	}

	<-ctx.Done()
	log.Info("shutting down")
	sched.Stop()
	return 0
}

// newDecoder selects the payload decoder for the configured format.
func newDecoder(cfg *config.Config) decoder.Decoder {
	aliases := decoder.DefaultFieldAliases()
	if cfg.Decoder == "netcdf" {
		return decoder.NewNetCDFDecoder(cfg.StagingDir, aliases)
	}
	return decoder.NewGRIB2Decoder(cfg.Wgrib2Path, cfg.StagingDir, aliases)
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Wave Forecasts Generator v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  wave-forecasts [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help              Show this help message")
	fmt.Println("  -version           Show version information")
	fmt.Println("  -date YYYYMMDD     Run date (default: today, UTC)")
	fmt.Println("  -cycle HH          Model cycle: 00, 06, 12 or 18 (default: 00)")
	fmt.Println("  -hour-start N      First forecast hour (default: 0)")
	fmt.Println("  -hour-end N        Last forecast hour (default: 180)")
	fmt.Println("  -hour-step N       Forecast hour step (default: 3)")
	fmt.Println("  -locations LIST    name:lat:lon,... (default: cape_may, pipeline, ventura)")
	fmt.Println("  -output-dir DIR    Series output directory (default: forecasts)")
	fmt.Println("  -staging-dir DIR   Temporary staging directory (default: temp)")
	fmt.Println("  -decoder FORMAT    grib2 or netcdf (default: grib2)")
	fmt.Println("  -schedule CRON     Regenerate on a cron schedule instead of running once")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from .env):")
	fmt.Println("  BASE_URL           Forecast file base URL (default: NOMADS wave/prod)")
	fmt.Println("  RUN_DATE           Run date as YYYYMMDD")
	fmt.Println("  CYCLE              Model cycle")
	fmt.Println("  HOUR_START         First forecast hour")
	fmt.Println("  HOUR_END           Last forecast hour")
	fmt.Println("  HOUR_STEP          Forecast hour step")
	fmt.Println("  LOCATIONS          Locations as name:lat:lon,...")
	fmt.Println("  OUTPUT_DIR         Series output directory")
	fmt.Println("  STAGING_DIR        Temporary staging directory")
	fmt.Println("  DECODER            grib2 or netcdf")
	fmt.Println("  WGRIB2_PATH        Path to the wgrib2 binary (default: wgrib2)")
	fmt.Println("  HTTP_TIMEOUT       Per-file download timeout (default: 2m)")
	fmt.Println("  BREAKER_FAILURES   Consecutive failures before downloads stop; while open, hours are")
	fmt.Println("                     skipped without a download attempt (default: 0, disabled; max 1000)")
	fmt.Println("  LOG_LEVEL          debug, info, warn, error (default: info)")
	fmt.Println("  LOG_FORMAT         text or json (default: text)")
	fmt.Println("  SCHEDULE           Cron expression for repeated runs")
	fmt.Println("  PUSHGATEWAY_URL    Prometheus Pushgateway URL for run metrics")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Generate today's 00Z forecasts")
	fmt.Println("  wave-forecasts")
	fmt.Println()
	fmt.Println("  # First day of a specific run for one spot")
	fmt.Println("  wave-forecasts -date 20250101 -hour-end 24 -locations pipeline:21.665:-158.05")
	fmt.Println()
}
