// Package fetch downloads raw forecast files over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrHTTPStatus is returned for any non-200 response.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrCircuitOpen is returned while the breaker short-circuits requests.
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// Fetcher retrieves the bytes behind a URL. One attempt per call, no retries.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Config controls the HTTP fetcher.
type Config struct {
	Client *http.Client
	// BreakerFailures opens the circuit after this many consecutive failures.
	// Zero disables the breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long the circuit stays open before a trial request.
	BreakerTimeout time.Duration
}

// HTTPFetcher implements Fetcher with net/http.
type HTTPFetcher struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewHTTPFetcher creates a fetcher. A nil client gets a 2 minute timeout.
func NewHTTPFetcher(cfg Config) *HTTPFetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	threshold := cfg.BreakerFailures

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nomads",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
	})

	return &HTTPFetcher{
		client:  client,
		circuit: cb,
	}
}

// Fetch downloads url and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	result, err := f.circuit.Execute(func() (interface{}, error) {
		return f.get(ctx, url)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d for %s: %s", ErrHTTPStatus, resp.StatusCode, url, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty body for %s", url)
	}
	return data, nil
}
