package usecase

import (
	"context"
	"fmt"

	"go.ngs.io/wave-forecasts/internal/domain"
)

// SeriesWriter persists finished location series.
type SeriesWriter interface {
	WriteAll(series []domain.LocationSeries) error
}

// GenerateForecasts assembles a run and writes one series per location, including
// empty series for locations that produced no observations. If ctx is done by the
// time assembly finishes, nothing is written and the existing files are kept.
func GenerateForecasts(ctx context.Context, a *Assembler, w SeriesWriter, run domain.ForecastRunSpec, locations []domain.LocationSpec) (*Result, error) {
	result := a.Assemble(ctx, run, locations)
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run interrupted, series not written: %w", err)
	}
	if err := w.WriteAll(result.Series); err != nil {
		return result, fmt.Errorf("failed to write series: %w", err)
	}
	return result, nil
}
