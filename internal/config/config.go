// Package config loads the run configuration for forecast generation.
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables (a .env file in the working directory is loaded first)
//  3. Default values
//
// The resulting Config is an explicit value: nothing downstream reads the
// environment or package-level defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"go.ngs.io/wave-forecasts/internal/domain"
)

// Defaults.
const (
	DefaultBaseURL    = "https://nomads.ncep.noaa.gov/pub/data/nccf/com/wave/prod"
	DefaultCycle      = "00"
	DefaultHourStart  = 0
	DefaultHourEnd    = 180
	DefaultHourStep   = 3
	DefaultOutputDir  = "forecasts"
	DefaultStagingDir = "temp"
	DefaultPort       = "8080"

	runDateLayout = "20060102"
)

// DefaultLocations are the surf spots extracted when LOCATIONS is not set.
var DefaultLocations = []Location{
	{Name: "cape_may", Lat: 38.935, Lon: -74.908},
	{Name: "pipeline", Lat: 21.665, Lon: -158.05},
	{Name: "ventura", Lat: 34.275, Lon: -119.294},
}

// Location is a configured extraction point.
type Location struct {
	Name string  `validate:"required,excludesall=/\\"`
	Lat  float64 `validate:"gte=-90,lte=90"`
	Lon  float64 `validate:"gte=-180,lte=180"`
}

// Config holds the generator and server configuration.
type Config struct {
	BaseURL   string     `validate:"required,url"`
	RunDate   time.Time  `validate:"required"`
	Cycle     string     `validate:"oneof=00 06 12 18"`
	HourStart int        `validate:"gte=0"`
	HourEnd   int        `validate:"gtefield=HourStart"`
	HourStep  int        `validate:"gt=0"`
	Locations []Location `validate:"required,min=1,unique=Name,dive"`

	// RunDateFixed is set when the run date came from a flag or RUN_DATE.
	// Scheduled runs otherwise recompute it at each firing.
	RunDateFixed bool

	OutputDir  string `validate:"required"`
	StagingDir string `validate:"required"`
	Decoder    string `validate:"oneof=grib2 netcdf"`
	Wgrib2Path string `validate:"required"`

	HTTPTimeout     time.Duration `validate:"gt=0"`
	BreakerFailures uint          `validate:"lte=1000"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`

	Schedule       string
	PushgatewayURL string `validate:"omitempty,url"`
	Port           string `validate:"required,numeric"`
	AllowedOrigins []string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads .env, the environment and args (without the program name) into a validated Config.
func Load(args []string) (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}
	return parse(args, time.Now)
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func parse(args []string, now func() time.Time) (*Config, error) {
	cfg := &Config{}
	flags := flag.NewFlagSet("wave-forecasts", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var runDate, locations string

	flags.StringVar(&cfg.BaseURL, "base-url", getEnv("BASE_URL", DefaultBaseURL), "Forecast file base URL")
	flags.StringVar(&runDate, "date", getEnv("RUN_DATE", ""), "Run date as YYYYMMDD (default: today, UTC)")
	flags.StringVar(&cfg.Cycle, "cycle", getEnv("CYCLE", DefaultCycle), "Model cycle: 00, 06, 12 or 18")
	flags.IntVar(&cfg.HourStart, "hour-start", getEnvInt("HOUR_START", DefaultHourStart), "First forecast hour")
	flags.IntVar(&cfg.HourEnd, "hour-end", getEnvInt("HOUR_END", DefaultHourEnd), "Last forecast hour (inclusive)")
	flags.IntVar(&cfg.HourStep, "hour-step", getEnvInt("HOUR_STEP", DefaultHourStep), "Forecast hour step")
	flags.StringVar(&locations, "locations", getEnv("LOCATIONS", ""), "Locations as name:lat:lon,... (default: built-in spots)")

	flags.StringVar(&cfg.OutputDir, "output-dir", getEnv("OUTPUT_DIR", DefaultOutputDir), "Series output directory")
	flags.StringVar(&cfg.StagingDir, "staging-dir", getEnv("STAGING_DIR", DefaultStagingDir), "Temporary staging directory")
	flags.StringVar(&cfg.Decoder, "decoder", getEnv("DECODER", "grib2"), "Payload format: grib2 or netcdf")
	flags.StringVar(&cfg.Wgrib2Path, "wgrib2", getEnv("WGRIB2_PATH", "wgrib2"), "Path to the wgrib2 binary")

	flags.DurationVar(&cfg.HTTPTimeout, "http-timeout", getEnvDuration("HTTP_TIMEOUT", 2*time.Minute), "Per-file download timeout")
	flags.UintVar(&cfg.BreakerFailures, "breaker-failures", uint(getEnvInt("BREAKER_FAILURES", 0)), "Consecutive fetch failures before the breaker opens; while open, hours are skipped without a download attempt (0 disables, max 1000)")

	flags.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flags.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")

	flags.StringVar(&cfg.Schedule, "schedule", getEnv("SCHEDULE", ""), "Cron expression for repeated runs (default: run once)")
	flags.StringVar(&cfg.PushgatewayURL, "pushgateway-url", getEnv("PUSHGATEWAY_URL", ""), "Prometheus Pushgateway URL")
	flags.StringVar(&cfg.Port, "port", getEnv("PORT", DefaultPort), "HTTP server port")
	origins := flags.String("cors-origins", getEnv("CORS_ALLOWED_ORIGINS", ""), "Comma-separated allowed origins (default: all)")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	for _, o := range strings.Split(*origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if runDate == "" {
		cfg.RunDate = Today(now())
	} else {
		d, err := time.Parse(runDateLayout, strings.ReplaceAll(runDate, "-", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid run date %q (expected YYYYMMDD): %w", runDate, err)
		}
		cfg.RunDate = d
		cfg.RunDateFixed = true
	}

	if locations == "" {
		cfg.Locations = append([]Location(nil), DefaultLocations...)
	} else {
		locs, err := ParseLocations(locations)
		if err != nil {
			return nil, err
		}
		cfg.Locations = locs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and location uniqueness.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Today returns the UTC calendar date of t.
func Today(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RunSpec builds the forecast run described by the configuration.
func (c *Config) RunSpec() (domain.ForecastRunSpec, error) {
	cycle, err := domain.ParseCycle(c.Cycle)
	if err != nil {
		return domain.ForecastRunSpec{}, err
	}
	return domain.NewForecastRunSpec(c.BaseURL, c.RunDate, cycle, c.HourStart, c.HourEnd, c.HourStep)
}

// ForDate returns a copy of the configuration for another run date.
func (c *Config) ForDate(t time.Time) *Config {
	out := *c
	out.RunDate = Today(t)
	return &out
}

// Product returns the model product identifier for the configured run.
func (c *Config) Product() string {
	spec, err := c.RunSpec()
	if err != nil {
		return ""
	}
	return spec.Product()
}

// LocationSpecs returns the configured locations in configuration order.
func (c *Config) LocationSpecs() []domain.LocationSpec {
	specs := make([]domain.LocationSpec, len(c.Locations))
	for i, l := range c.Locations {
		specs[i] = domain.LocationSpec{Name: l.Name, Lat: l.Lat, Lon: l.Lon}
	}
	return specs
}

// ParseLocations parses "name:lat:lon,name:lat:lon".
func ParseLocations(s string) ([]Location, error) {
	var locs []Location
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid location %q (expected name:lat:lon)", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in location %q: %w", entry, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in location %q: %w", entry, err)
		}
		locs = append(locs, Location{Name: strings.TrimSpace(parts[0]), Lat: lat, Lon: lon})
	}
	if len(locs) == 0 {
		return nil, errors.New("no locations configured")
	}
	return locs, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
