package domain

import (
	"testing"
	"time"
)

func TestNewForecastRunSpec_Hours(t *testing.T) {
	runDate := time.Date(2025, 3, 9, 17, 45, 0, 0, time.UTC)
	run, err := NewForecastRunSpec("https://example.test/wave/prod", runDate, Cycle06, 0, 180, 3)
	if err != nil {
		t.Fatalf("NewForecastRunSpec: %v", err)
	}
	if len(run.Hours) != 61 {
		t.Fatalf("expected 61 forecast hours, got %d", len(run.Hours))
	}
	if run.Hours[0] != 0 || run.Hours[60] != 180 {
		t.Errorf("unexpected hour bounds: first=%d last=%d", run.Hours[0], run.Hours[60])
	}
	for i := 1; i < len(run.Hours); i++ {
		if run.Hours[i]-run.Hours[i-1] != 3 {
			t.Fatalf("hours not spaced by step at %d: %v", i, run.Hours)
		}
	}
}

func TestNewForecastRunSpec_InvalidRange(t *testing.T) {
	tests := []struct {
		name             string
		start, end, step int
	}{
		{"zero step", 0, 180, 0},
		{"negative step", 0, 180, -3},
		{"negative start", -3, 180, 3},
		{"end before start", 12, 6, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewForecastRunSpec("", time.Now(), Cycle00, tt.start, tt.end, tt.step); err == nil {
				t.Errorf("expected error for %d..%d step %d", tt.start, tt.end, tt.step)
			}
		})
	}
}

func TestForecastRunSpec_URL(t *testing.T) {
	run := ForecastRunSpec{
		BaseURL: "https://nomads.ncep.noaa.gov/pub/data/nccf/com/wave/prod",
		RunDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Cycle:   Cycle12,
	}

	if got, want := run.Product(), "multi_1.2025010212.global.0p25"; got != want {
		t.Errorf("Product: expected %s, got %s", want, got)
	}

	want := "https://nomads.ncep.noaa.gov/pub/data/nccf/com/wave/prod/wave.20250102/multi_1.2025010212.global.0p25.f009.grib2"
	if got := run.URL(9); got != want {
		t.Errorf("URL:\nexpected %s\ngot      %s", want, got)
	}

	if got, want := run.InitTime(), time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("InitTime: expected %v, got %v", want, got)
	}
}

func TestCycle_Hour(t *testing.T) {
	tests := map[Cycle]int{Cycle00: 0, Cycle06: 6, Cycle12: 12, Cycle18: 18, Cycle("03"): 0}
	for c, want := range tests {
		if got := c.Hour(); got != want {
			t.Errorf("Cycle(%q).Hour(): expected %d, got %d", c, want, got)
		}
	}
}

func TestHourCode(t *testing.T) {
	tests := map[int]string{0: "f000", 3: "f003", 42: "f042", 180: "f180"}
	for hour, want := range tests {
		if got := HourCode(hour); got != want {
			t.Errorf("HourCode(%d): expected %s, got %s", hour, want, got)
		}
	}
}

func TestParseCycle(t *testing.T) {
	for _, s := range []string{"00", "06", "12", "18"} {
		if _, err := ParseCycle(s); err != nil {
			t.Errorf("ParseCycle(%q): unexpected error %v", s, err)
		}
	}
	for _, s := range []string{"", "0", "03", "24", "6"} {
		if _, err := ParseCycle(s); err == nil {
			t.Errorf("ParseCycle(%q): expected error", s)
		}
	}
}

func TestLocationSeries_AppendKeepsOrder(t *testing.T) {
	s := LocationSeries{Location: LocationSpec{Name: "pipeline", Lat: 21.665, Lon: -158.05}}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{0, 3, 9} {
		s.Append(NewObservation(base.Add(time.Duration(h)*time.Hour), Swell{Height: 1}, Wind{}))
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 observations, got %d", s.Len())
	}
	want := []string{"2025-01-01T00:00:00Z", "2025-01-01T03:00:00Z", "2025-01-01T09:00:00Z"}
	for i, w := range want {
		if s.Observations[i].Timestamp != w {
			t.Errorf("observation %d: expected %s, got %s", i, w, s.Observations[i].Timestamp)
		}
		if len(s.Observations[i].Swells) != 1 {
			t.Errorf("observation %d: expected one swell component, got %d", i, len(s.Observations[i].Swells))
		}
	}
}
