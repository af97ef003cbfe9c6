package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting the request.
var ErrCircuitOpen = errors.New("circuit breaker open")

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	},
	[]string{"name"},
)

type breakerResult struct {
	status int
	body   []byte
}

// BreakerConfig controls circuit breaker thresholds.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns thresholds tuned for external gateway calls.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerClient wraps Client with a circuit breaker so a failing upstream is
// given time to recover instead of being hammered.
type BreakerClient struct {
	client  *Client
	breaker *gobreaker.CircuitBreaker[breakerResult]
}

// NewBreakerClient creates a circuit-breaking HTTP client.
func NewBreakerClient(client *Client, cfg BreakerConfig, logger *slog.Logger) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &BreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[breakerResult](settings),
	}
}

// Do executes the request through the circuit breaker.
func (b *BreakerClient) Do(ctx context.Context, method, url string, body []byte, headers http.Header) (int, []byte, error) {
	result, err := b.breaker.Execute(func() (breakerResult, error) {
		status, respBody, err := b.client.Do(ctx, method, url, body, headers)
		if err != nil {
			return breakerResult{}, err
		}
		return breakerResult{status: status, body: respBody}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, ErrCircuitOpen
		}
		return 0, nil, err
	}
	return result.status, result.body, nil
}
