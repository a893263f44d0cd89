package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.ngs.io/wave-forecasts/internal/adapter/decoder"
	"go.ngs.io/wave-forecasts/internal/adapter/fetch"
	"go.ngs.io/wave-forecasts/internal/adapter/grid"
	"go.ngs.io/wave-forecasts/internal/domain"
	"go.ngs.io/wave-forecasts/internal/metrics"
)

// SampleResult is the outcome of extracting one location for one forecast hour.
type SampleResult struct {
	Location    string
	Observation *domain.Observation // Nil when Err is set.
	Err         error
}

// FailedField returns the field that failed to sample, or "" if the failure
// was not field-specific.
func (r SampleResult) FailedField() string {
	var se *grid.SampleError
	if errors.As(r.Err, &se) {
		return se.Field
	}
	return ""
}

// HourResult is the outcome of one forecast hour.
type HourResult struct {
	Hour      int
	URL       string
	ValidTime time.Time
	Err       error          // Fetch or decode failure; Samples is empty when set.
	Samples   []SampleResult // One per location, in configuration order.
}

// Result holds every series and the per-hour outcomes of a run.
type Result struct {
	Series []domain.LocationSeries // In configuration order.
	Hours  []HourResult
}

// SuccessfulHours counts hours that fetched and decoded.
func (r *Result) SuccessfulHours() int {
	n := 0
	for _, h := range r.Hours {
		if h.Err == nil {
			n++
		}
	}
	return n
}

// Assembler builds per-location series from a sequence of forecast-hour grids.
type Assembler struct {
	fetcher fetch.Fetcher
	decoder decoder.Decoder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAssembler creates an assembler. Logger and metrics may be nil.
func NewAssembler(fetcher fetch.Fetcher, dec decoder.Decoder, logger *slog.Logger, m *metrics.Metrics) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		fetcher: fetcher,
		decoder: dec,
		logger:  logger,
		metrics: m,
	}
}

// Assemble processes every forecast hour of run in order and returns one series per
// location. Failures never abort the run: a failed fetch or decode skips the hour for
// all locations, and a failed sample skips only that (hour, location) pair.
func (a *Assembler) Assemble(ctx context.Context, run domain.ForecastRunSpec, locations []domain.LocationSpec) *Result {
	result := &Result{
		Series: make([]domain.LocationSeries, len(locations)),
		Hours:  make([]HourResult, 0, len(run.Hours)),
	}
	for i, loc := range locations {
		result.Series[i] = domain.LocationSeries{
			Location:     loc,
			Observations: make([]domain.Observation, 0, len(run.Hours)),
		}
	}

	a.logger.Info("starting forecast run",
		"product", run.Product(),
		"init_time", domain.FormatTimestamp(run.InitTime()),
		"hours", len(run.Hours),
		"locations", len(locations),
	)

	for _, hour := range run.Hours {
		hr := a.processHour(ctx, run, hour, result.Series)
		result.Hours = append(result.Hours, hr)
	}

	if a.metrics != nil {
		a.metrics.LastRunTimestamp.SetToCurrentTime()
	}

	attrs := []any{
		"product", run.Product(),
		"hours_ok", result.SuccessfulHours(),
		"hours_skipped", len(run.Hours) - result.SuccessfulHours(),
	}
	for _, s := range result.Series {
		attrs = append(attrs, s.Location.Name, s.Len())
	}
	a.logger.Info("forecast run complete", attrs...)

	return result
}

// processHour fetches, decodes and samples one forecast hour, appending observations
// to series. The grid is released when it returns.
func (a *Assembler) processHour(ctx context.Context, run domain.ForecastRunSpec, hour int, series []domain.LocationSeries) HourResult {
	hr := HourResult{Hour: hour, URL: run.URL(hour)}

	g, err := a.loadGrid(ctx, hr.URL)
	if err != nil {
		hr.Err = err
		a.logger.Warn("skipping forecast hour",
			"hour", domain.HourCode(hour),
			"url", hr.URL,
			"error", err,
		)
		a.countHour("skipped")
		return hr
	}
	a.countHour("ok")
	hr.ValidTime = g.ValidTime

	a.logger.Debug("decoded forecast hour",
		"hour", domain.HourCode(hour),
		"valid_time", domain.FormatTimestamp(g.ValidTime),
		"fields", len(g.Fields),
	)

	hr.Samples = make([]SampleResult, 0, len(series))
	for i := range series {
		loc := series[i].Location
		obs, err := ExtractObservation(g, loc)
		if err != nil {
			sr := SampleResult{Location: loc.Name, Err: err}
			hr.Samples = append(hr.Samples, sr)
			a.logger.Warn("missing data at location",
				"hour", domain.HourCode(hour),
				"location", loc.Name,
				"field", sr.FailedField(),
				"error", err,
			)
			if a.metrics != nil {
				a.metrics.SamplesSkippedTotal.WithLabelValues(loc.Name, sr.FailedField()).Inc()
			}
			continue
		}

		series[i].Append(obs)
		hr.Samples = append(hr.Samples, SampleResult{Location: loc.Name, Observation: &obs})
		if a.metrics != nil {
			a.metrics.ObservationsTotal.WithLabelValues(loc.Name).Inc()
		}
	}

	return hr
}

// loadGrid fetches and decodes one forecast-hour file.
func (a *Assembler) loadGrid(ctx context.Context, url string) (*grid.Grid, error) {
	a.logger.Info("downloading forecast file", "url", url)

	start := time.Now()
	payload, err := a.fetcher.Fetch(ctx, url)
	if a.metrics != nil {
		a.metrics.FetchSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}

	start = time.Now()
	g, err := a.decoder.Decode(ctx, payload)
	if a.metrics != nil {
		a.metrics.DecodeSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	if g == nil {
		return nil, errors.New("failed to decode: decoder returned no grid")
	}
	return g, nil
}

func (a *Assembler) countHour(result string) {
	if a.metrics != nil {
		a.metrics.HoursTotal.WithLabelValues(result).Inc()
	}
}

// ExtractObservation samples the five required fields at the grid point nearest to loc
// and builds an observation stamped with the grid's valid time. Any field failure
// fails the whole observation.
func ExtractObservation(g *grid.Grid, loc domain.LocationSpec) (domain.Observation, error) {
	values, err := g.Sample(loc.Lat, loc.Lon, domain.RequiredFields...)
	if err != nil {
		return domain.Observation{}, err
	}

	swell := domain.Swell{
		Height:    values[domain.FieldWaveHeight],
		Period:    values[domain.FieldPeriod],
		Direction: values[domain.FieldDirection],
	}
	wind := domain.DecomposeWind(values[domain.FieldWindU], values[domain.FieldWindV])

	return domain.NewObservation(g.ValidTime, swell, wind), nil
}
