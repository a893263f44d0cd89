// Package grid holds decoded forecast-hour grids and nearest-grid-point sampling.
package grid

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sampling errors. Callers treat any of these as "skip this location for this hour".
var (
	ErrFieldMissing    = errors.New("field missing")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrMissingValue    = errors.New("missing value at grid point")
	ErrEmptyAxis       = errors.New("empty coordinate axis")
)

// Grid is one decoded forecast-hour dataset.
type Grid struct {
	Lat       []float64              // Latitude axis, ascending or descending.
	Lon       []float64              // Longitude axis in [0, 360).
	ValidTime time.Time              // Valid time of every field in the grid.
	Fields    map[string][][]float64 // Fields[name][latIdx][lonIdx]; NaN marks missing values.
}

// Validate checks that every field matches the axis lengths.
func (g *Grid) Validate() error {
	if len(g.Lat) == 0 {
		return fmt.Errorf("latitude: %w", ErrEmptyAxis)
	}
	if len(g.Lon) == 0 {
		return fmt.Errorf("longitude: %w", ErrEmptyAxis)
	}
	for name, values := range g.Fields {
		if len(values) != len(g.Lat) {
			return fmt.Errorf("field %s has %d rows, expected %d", name, len(values), len(g.Lat))
		}
		for i, row := range values {
			if len(row) != len(g.Lon) {
				return fmt.Errorf("field %s row %d has %d values, expected %d", name, i, len(row), len(g.Lon))
			}
		}
	}
	return nil
}

// FieldNames returns the names of the fields in the grid.
func (g *Grid) FieldNames() []string {
	names := make([]string, 0, len(g.Fields))
	for name := range g.Fields {
		names = append(names, name)
	}
	return names
}

// NormalizeLon360 maps a longitude in [-180, 180] onto the grid's [0, 360) axis.
// It must be applied exactly once to the raw query longitude.
func NormalizeLon360(lon float64) float64 {
	if lon < 0 {
		return lon + 360
	}
	return lon
}

// nearestIndex returns the index minimizing |axis[i] - target|.
// Ties resolve to the lowest index. Axis order does not matter.
func nearestIndex(axis []float64, target float64) (int, error) {
	if len(axis) == 0 {
		return 0, ErrEmptyAxis
	}
	best := 0
	bestDist := math.Abs(axis[0] - target)
	for i := 1; i < len(axis); i++ {
		if d := math.Abs(axis[i] - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// ResolveIndex returns the nearest grid indices to (lat, lon).
// No interpolation: values are read at a single grid point.
func (g *Grid) ResolveIndex(lat, lon float64) (latIdx, lonIdx int, err error) {
	latIdx, err = nearestIndex(g.Lat, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	lonIdx, err = nearestIndex(g.Lon, NormalizeLon360(lon))
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	return latIdx, lonIdx, nil
}

// SampleError reports which field failed to sample.
type SampleError struct {
	Field  string
	LatIdx int
	LonIdx int
	Err    error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %s at [%d, %d]: %v", e.Field, e.LatIdx, e.LonIdx, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// SampleField returns the value of a named field at the given indices.
func (g *Grid) SampleField(name string, latIdx, lonIdx int) (float64, error) {
	values, ok := g.Fields[name]
	if !ok {
		return 0, &SampleError{Field: name, LatIdx: latIdx, LonIdx: lonIdx, Err: ErrFieldMissing}
	}
	if latIdx < 0 || latIdx >= len(values) || lonIdx < 0 || lonIdx >= len(values[latIdx]) {
		return 0, &SampleError{Field: name, LatIdx: latIdx, LonIdx: lonIdx, Err: ErrIndexOutOfRange}
	}
	v := values[latIdx][lonIdx]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &SampleError{Field: name, LatIdx: latIdx, LonIdx: lonIdx, Err: ErrMissingValue}
	}
	return v, nil
}

// Sample resolves the nearest grid point to (lat, lon) and reads every named field there.
// It stops at the first field that fails.
func (g *Grid) Sample(lat, lon float64, names ...string) (map[string]float64, error) {
	latIdx, lonIdx, err := g.ResolveIndex(lat, lon)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve (%.4f, %.4f): %w", lat, lon, err)
	}
	out := make(map[string]float64, len(names))
	for _, name := range names {
		v, err := g.SampleField(name, latIdx, lonIdx)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
