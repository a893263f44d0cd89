// Package series reads and writes per-location forecast series as JSON files.
package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.ngs.io/wave-forecasts/internal/domain"
)

const fileExt = ".json"

// ErrNotFound is returned when no series file exists for a location.
var ErrNotFound = errors.New("series not found")

// Store reads and writes series files under a directory.
type Store struct {
	dir string
}

// NewStore creates a series store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for a location name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

// Write writes one series as a 2-space indented JSON array.
// An empty series is written as "[]".
func (s *Store) Write(series domain.LocationSeries) error {
	//nolint:gosec // G301: Output directory is meant to be readable by consumers.
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := Encode(series.Observations)
	if err != nil {
		return fmt.Errorf("failed to encode series for %s: %w", series.Location.Name, err)
	}

	//nolint:gosec // G306: Output files are meant to be readable by consumers.
	if err := os.WriteFile(s.Path(series.Location.Name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write series for %s: %w", series.Location.Name, err)
	}
	return nil
}

// WriteAll writes every series, continuing past failures and returning them joined.
func (s *Store) WriteAll(all []domain.LocationSeries) error {
	var errs []error
	for _, series := range all {
		if err := s.Write(series); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Read loads the series for a location name.
func (s *Store) Read(name string) ([]domain.Observation, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: invalid location name %q", ErrNotFound, name)
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read series for %s: %w", name, err)
	}
	return Decode(data)
}

// List returns the location names with a series file, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list series directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

// Encode renders observations in the series file format.
func Encode(observations []domain.Observation) ([]byte, error) {
	if observations == nil {
		observations = []domain.Observation{}
	}
	return json.MarshalIndent(observations, "", "  ")
}

// Decode parses a series file.
func Decode(data []byte) ([]domain.Observation, error) {
	var observations []domain.Observation
	if err := json.Unmarshal(data, &observations); err != nil {
		return nil, fmt.Errorf("failed to decode series: %w", err)
	}
	if observations == nil {
		observations = []domain.Observation{}
	}
	return observations, nil
}

// validName rejects names that would escape the store directory.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`)
}
