package domain

import "time"

// Swell is one swell component at a point.
type Swell struct {
	Height    float64 `json:"height"`    // Meters.
	Period    float64 `json:"period"`    // Seconds.
	Direction float64 `json:"direction"` // Compass degrees [0, 360).
}

// Wind describes 10 m wind at a point.
type Wind struct {
	Speed     float64 `json:"speed"`     // m/s.
	Direction float64 `json:"direction"` // Compass degrees the wind blows from.
}

// Observation is one location's state at one valid time.
type Observation struct {
	Timestamp string  `json:"timestamp"` // RFC 3339, UTC.
	Swells    []Swell `json:"swells"`
	Wind      Wind    `json:"wind"`
}

// NewObservation builds an observation with a single primary swell component.
func NewObservation(validTime time.Time, swell Swell, wind Wind) Observation {
	return Observation{
		Timestamp: FormatTimestamp(validTime),
		Swells:    []Swell{swell},
		Wind:      wind,
	}
}

// FormatTimestamp renders a valid time the way series files store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// LocationSeries is the time-ordered observations for one location.
// Observations are appended in forecast-hour order and never re-sorted.
type LocationSeries struct {
	Location     LocationSpec
	Observations []Observation
}

// Append adds an observation to the end of the series.
func (s *LocationSeries) Append(obs Observation) {
	s.Observations = append(s.Observations, obs)
}

// Len returns the number of observations.
func (s *LocationSeries) Len() int {
	return len(s.Observations)
}
