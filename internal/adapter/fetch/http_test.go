package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wave.20250101/multi_1.2025010100.global.0p25.f000.grib2":
			_, _ = w.Write([]byte("GRIB payload"))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(Config{Client: server.Client()})
	ctx := context.Background()

	data, err := f.Fetch(ctx, server.URL+"/wave.20250101/multi_1.2025010100.global.0p25.f000.grib2")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "GRIB payload" {
		t.Errorf("unexpected body %q", data)
	}

	if _, err := f.Fetch(ctx, server.URL+"/missing.grib2"); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("expected ErrHTTPStatus for 404, got %v", err)
	}

	if _, err := f.Fetch(ctx, server.URL+"/empty"); err == nil {
		t.Errorf("expected error for empty body")
	}
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	f := NewHTTPFetcher(Config{Client: &http.Client{Timeout: time.Second}})
	if _, err := f.Fetch(context.Background(), url+"/f000.grib2"); err == nil {
		t.Fatal("expected error from closed server")
	}
}

func TestHTTPFetcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewHTTPFetcher(Config{Client: server.Client(), BreakerFailures: 2, BreakerTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(ctx, server.URL); !errors.Is(err, ErrHTTPStatus) {
			t.Fatalf("attempt %d: expected ErrHTTPStatus, got %v", i, err)
		}
	}
	if _, err := f.Fetch(ctx, server.URL); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if hits != 2 {
		t.Errorf("expected 2 requests to reach the server, got %d", hits)
	}
}

func TestHTTPFetcher_BreakerDisabledByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPFetcher(Config{Client: server.Client()})
	for i := 0; i < 10; i++ {
		if _, err := f.Fetch(context.Background(), server.URL); errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("breaker opened on attempt %d with threshold 0", i)
		}
	}
}
