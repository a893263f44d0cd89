package domain

import (
	"fmt"
	"time"
)

// Cycle is the synoptic initialization hour of a model run.
type Cycle string

// Supported synoptic cycles.
const (
	Cycle00 Cycle = "00"
	Cycle06 Cycle = "06"
	Cycle12 Cycle = "12"
	Cycle18 Cycle = "18"
)

// ParseCycle validates a cycle string.
func ParseCycle(s string) (Cycle, error) {
	switch c := Cycle(s); c {
	case Cycle00, Cycle06, Cycle12, Cycle18:
		return c, nil
	default:
		return "", fmt.Errorf("invalid cycle %q (use 00, 06, 12 or 18)", s)
	}
}

// Hour returns the cycle's initialization hour (UTC). Unknown cycles return 0.
func (c Cycle) Hour() int {
	switch c {
	case Cycle06:
		return 6
	case Cycle12:
		return 12
	case Cycle18:
		return 18
	default:
		return 0
	}
}

// LocationSpec is a named point at which series are extracted.
type LocationSpec struct {
	Name string  // Unique key, also the output file name.
	Lat  float64 // Latitude in degrees [-90, 90].
	Lon  float64 // Longitude in degrees [-180, 180].
}

// ForecastRunSpec identifies one model run and the forecast hours to fetch.
type ForecastRunSpec struct {
	BaseURL string
	RunDate time.Time // Only the calendar date (UTC) is used.
	Cycle   Cycle
	Hours   []int // Forecast-hour offsets, ascending.
}

// NewForecastRunSpec builds a run spec for hours start..end (inclusive) every step hours.
func NewForecastRunSpec(baseURL string, runDate time.Time, cycle Cycle, start, end, step int) (ForecastRunSpec, error) {
	if step <= 0 {
		return ForecastRunSpec{}, fmt.Errorf("hour step must be positive, got %d", step)
	}
	if start < 0 || end < start {
		return ForecastRunSpec{}, fmt.Errorf("invalid hour range %d..%d", start, end)
	}

	hours := make([]int, 0, (end-start)/step+1)
	for h := start; h <= end; h += step {
		hours = append(hours, h)
	}

	return ForecastRunSpec{
		BaseURL: baseURL,
		RunDate: runDate.UTC(),
		Cycle:   cycle,
		Hours:   hours,
	}, nil
}

// DateString returns the run date as YYYYMMDD.
func (r ForecastRunSpec) DateString() string {
	return r.RunDate.UTC().Format("20060102")
}

// Product returns the model product identifier, e.g. "multi_1.2025010100.global.0p25".
func (r ForecastRunSpec) Product() string {
	return fmt.Sprintf("multi_1.%s%s.global.0p25", r.DateString(), r.Cycle)
}

// InitTime returns the model initialization time.
func (r ForecastRunSpec) InitTime() time.Time {
	d := r.RunDate.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), r.Cycle.Hour(), 0, 0, 0, time.UTC)
}

// FileName returns the GRIB2 file name for a forecast hour.
func (r ForecastRunSpec) FileName(hour int) string {
	return fmt.Sprintf("%s.%s.grib2", r.Product(), HourCode(hour))
}

// URL returns the download URL for a forecast hour.
func (r ForecastRunSpec) URL(hour int) string {
	return fmt.Sprintf("%s/wave.%s/%s", r.BaseURL, r.DateString(), r.FileName(hour))
}

// HourCode formats a forecast hour as "f" plus a zero-padded three-digit offset.
func HourCode(hour int) string {
	return fmt.Sprintf("f%03d", hour)
}
