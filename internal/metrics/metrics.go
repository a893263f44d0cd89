// Package metrics provides Prometheus instrumentation for forecast generation.
//
// Metrics exposed:
//   - wave_forecasts_hours_total: Counter of forecast hours by result (ok, skipped)
//   - wave_forecasts_observations_total: Counter of observations appended per location
//   - wave_forecasts_samples_skipped_total: Counter of dropped (hour, location) samples
//   - wave_forecasts_fetch_seconds: Histogram of forecast file download duration
//   - wave_forecasts_decode_seconds: Histogram of grid decode duration
//   - wave_forecasts_last_run_timestamp_seconds: Gauge of the last completed run
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the pipeline metrics.
type Metrics struct {
	HoursTotal          *prometheus.CounterVec
	ObservationsTotal   *prometheus.CounterVec
	SamplesSkippedTotal *prometheus.CounterVec
	FetchSeconds        prometheus.Histogram
	DecodeSeconds       prometheus.Histogram
	LastRunTimestamp    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HoursTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wave_forecasts_hours_total",
			Help: "Forecast hours processed, by result",
		}, []string{"result"}),

		ObservationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wave_forecasts_observations_total",
			Help: "Observations appended to a location series",
		}, []string{"location"}),

		SamplesSkippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wave_forecasts_samples_skipped_total",
			Help: "Location samples dropped for an hour, by failing field",
		}, []string{"location", "field"}),

		FetchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wave_forecasts_fetch_seconds",
			Help:    "Time spent downloading one forecast-hour file",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		DecodeSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wave_forecasts_decode_seconds",
			Help:    "Time spent decoding one forecast-hour grid",
			Buckets: prometheus.DefBuckets,
		}),

		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wave_forecasts_last_run_timestamp_seconds",
			Help: "Unix time the last forecast run completed",
		}),

		gatherer: reg,
	}
}

// Push sends the current metric values to a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
