package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/wave-forecasts/internal/adapter/store/series"
	"go.ngs.io/wave-forecasts/internal/domain"
)

// SeriesReader reads generated series files.
type SeriesReader interface {
	Read(name string) ([]domain.Observation, error)
	List() ([]string, error)
}

// Handler handles HTTP requests for generated forecasts.
type Handler struct {
	reader SeriesReader
}

// NewHandler creates a new HTTP handler.
func NewHandler(reader SeriesReader) *Handler {
	return &Handler{
		reader: reader,
	}
}

// ForecastResponse is the response for one location's series.
type ForecastResponse struct {
	Location     string               `json:"location"`
	Count        int                  `json:"count"`
	Observations []domain.Observation `json:"observations"`
}

// GetForecast handles GET /v1/forecasts/:location.
// Optional start and end query parameters (RFC3339) bound the returned observations.
func (h *Handler) GetForecast(c *gin.Context) {
	name := c.Param("location")

	var start, end time.Time
	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start time (expected RFC3339): %v", err)})
			return
		}
		start = t
	}
	if e := c.Query("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end time (expected RFC3339): %v", err)})
			return
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	observations, err := h.reader.Read(name)
	if err != nil {
		if errors.Is(err, series.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no forecast for location %q", name)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	observations = filterWindow(observations, start, end)

	c.JSON(http.StatusOK, ForecastResponse{
		Location:     name,
		Count:        len(observations),
		Observations: observations,
	})
}

// filterWindow keeps observations whose timestamp lies in [start, end].
// Zero bounds are open.
func filterWindow(observations []domain.Observation, start, end time.Time) []domain.Observation {
	if start.IsZero() && end.IsZero() {
		return observations
	}
	out := make([]domain.Observation, 0, len(observations))
	for _, obs := range observations {
		t, err := time.Parse(time.RFC3339, obs.Timestamp)
		if err != nil {
			continue
		}
		if !start.IsZero() && t.Before(start) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}
		out = append(out, obs)
	}
	return out
}

// GetLocations handles GET /v1/locations.
func (h *Handler) GetLocations(c *gin.Context) {
	names, err := h.reader.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"locations": names,
		"count":     len(names),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
