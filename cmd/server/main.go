// Package main provides the wave forecasts HTTP server.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"go.ngs.io/wave-forecasts/internal/adapter/store/series"
	"go.ngs.io/wave-forecasts/internal/config"
	httpHandler "go.ngs.io/wave-forecasts/internal/http"
	"go.ngs.io/wave-forecasts/internal/logger"
)

const version = "0.1.0"

func main() {
	for _, a := range os.Args[1:] {
		if a == "-version" || a == "--version" {
			fmt.Printf("wave-forecasts server version %s\n", version)
			return
		}
	}

	// Load configuration from flags, environment and .env.
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		printUsage()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	log.Info("starting wave forecasts server",
		"version", version,
		"port", cfg.Port,
		"output_dir", cfg.OutputDir,
	)

	// Initialize store.
	store := series.NewStore(cfg.OutputDir)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Setup router.
	router := httpHandler.SetupRouter(store, reg, cfg.AllowedOrigins)

	// Start server.
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info("server listening", "addr", addr)
	log.Info("API endpoints",
		"health", "GET /health",
		"locations", "GET /v1/locations",
		"forecast", "GET /v1/forecasts/:location",
		"metrics", "GET /metrics",
	)

	if err := router.Run(addr); err != nil {
		log.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Wave Forecasts Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  wave-forecasts-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -port PORT     Server port (default: 8080)")
	fmt.Println("  -output-dir    Directory of generated series (default: forecasts)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  OUTPUT_DIR              Directory of generated series (default: forecasts)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  LOG_LEVEL               debug, info, warn, error (default: info)")
	fmt.Println("  LOG_FORMAT              text or json (default: text)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                       Health check")
	fmt.Println("  GET /v1/locations                 List locations with a generated series")
	fmt.Println("  GET /v1/forecasts/:location       Get a location's series (optional start, end)")
	fmt.Println("  GET /metrics                      Prometheus metrics")
	fmt.Println()
}
