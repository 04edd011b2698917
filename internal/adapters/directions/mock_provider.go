package directions

import (
	"context"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/ports"
	"fmt"
	"sync"
	"time"
)

var errMissingPair = errors.New("mock directions: no result configured")

// MockProvider returns canned results and counts calls.
type MockProvider struct {
	mu       sync.Mutex
	Result   ports.RouteResult
	Err      error
	Traffic  time.Duration
	Calls    int
	Requests []ports.RouteRequest
}

func NewMockProvider(result ports.RouteResult, err error) *MockProvider {
	return &MockProvider{Result: result, Err: err}
}

func (m *MockProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return ports.RouteResult{}, m.Err
	}
	if m.Result.Legs == nil {
		return ports.RouteResult{}, fmt.Errorf("route %s -> %s: %w", req.Origin, req.Destination, errMissingPair)
	}
	return m.Result, nil
}

func (m *MockProvider) TrafficDuration(ctx context.Context, origin, destination domain.GeoPoint) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Traffic, nil
}
