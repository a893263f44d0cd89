package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"go.ngs.io/wave-forecasts/internal/adapter/store/series"
	"go.ngs.io/wave-forecasts/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestStore(t *testing.T) *series.Store {
	t.Helper()
	store := series.NewStore(t.TempDir())
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s := domain.LocationSeries{Location: domain.LocationSpec{Name: "pipeline"}}
	for h := 0; h <= 6; h += 3 {
		s.Append(domain.NewObservation(base.Add(time.Duration(h)*time.Hour),
			domain.Swell{Height: 2, Period: 15, Direction: 315},
			domain.DecomposeWind(1, 1)))
	}
	if err := store.WriteAll([]domain.LocationSeries{
		s,
		{Location: domain.LocationSpec{Name: "cape_may"}},
	}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	return store
}

func do(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetForecast(t *testing.T) {
	router := SetupRouter(newTestStore(t), nil, nil)

	w := do(t, router, "/v1/forecasts/pipeline")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp ForecastResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Location != "pipeline" || resp.Count != 3 || len(resp.Observations) != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Observations[1].Timestamp != "2025-01-01T03:00:00Z" {
		t.Errorf("unexpected second timestamp %s", resp.Observations[1].Timestamp)
	}
}

func TestGetForecast_Window(t *testing.T) {
	router := SetupRouter(newTestStore(t), nil, nil)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"start only", "?start=2025-01-01T03:00:00Z", http.StatusOK, 2},
		{"end only", "?end=2025-01-01T00:00:00Z", http.StatusOK, 1},
		{"both", "?start=2025-01-01T01:00:00Z&end=2025-01-01T05:00:00Z", http.StatusOK, 1},
		{"bad start", "?start=yesterday", http.StatusBadRequest, 0},
		{"reversed", "?start=2025-01-02T00:00:00Z&end=2025-01-01T00:00:00Z", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, "/v1/forecasts/pipeline"+tt.query)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp ForecastResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Count != tt.count {
				t.Errorf("count = %d, want %d", resp.Count, tt.count)
			}
		})
	}
}

func TestGetForecast_EmptyAndMissing(t *testing.T) {
	router := SetupRouter(newTestStore(t), nil, nil)

	w := do(t, router, "/v1/forecasts/cape_may")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"observations":[]`) {
		t.Errorf("expected empty observations array, got %s", w.Body.String())
	}

	if w := do(t, router, "/v1/forecasts/nowhere"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

type brokenReader struct{}

func (brokenReader) Read(string) ([]domain.Observation, error) { return nil, errors.New("io error") }
func (brokenReader) List() ([]string, error) { return nil, errors.New("io error") }

func TestHandler_ReaderErrors(t *testing.T) {
	router := SetupRouter(brokenReader{}, nil, nil)
	for _, target := range []string{"/v1/forecasts/pipeline", "/v1/locations"} {
		if w := do(t, router, target); w.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want 500", target, w.Code)
		}
	}
}

func TestGetLocations(t *testing.T) {
	router := SetupRouter(newTestStore(t), nil, nil)

	w := do(t, router, "/v1/locations")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Locations []string `json:"locations"`
		Count     int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || resp.Locations[0] != "cape_may" || resp.Locations[1] != "pipeline" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "wave_forecasts_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := SetupRouter(newTestStore(t), reg, []string{"https://example.com"})

	if w := do(t, router, "/health"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}

	w := do(t, router, "/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "wave_forecasts_test_total 1") {
		t.Errorf("metrics output missing counter:\n%s", w.Body.String())
	}

	if w := do(t, SetupRouter(newTestStore(t), nil, nil), "/metrics"); w.Code != http.StatusNotFound {
		t.Errorf("metrics without gatherer: status = %d, want 404", w.Code)
	}
}
