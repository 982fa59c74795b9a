// Package circuitbreaker guards calls to upstream providers with
// sony/gobreaker, counting only failures worth backing off from.
package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed lets every call through
	StateClosed State = "closed"
	// StateOpen rejects calls until the timeout elapses
	StateOpen State = "open"
	// StateHalfOpen lets a few probe calls through
	StateHalfOpen State = "half_open"
)

// ErrOpen is returned when the breaker rejects a call
var ErrOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	Name             string
	MaxFailures      int           // consecutive failures before opening
	FailureThreshold float64       // failure ratio before opening, once MinRequests were seen
	MinRequests      int
	Timeout          time.Duration // time spent open before probing
	HalfOpenMaxCalls int
}

// DefaultConfig returns the configuration used for the Metamob API
func DefaultConfig(name string) *Config {
	return &Config{
		Name:             name,
		MaxFailures:      5,
		FailureThreshold: 0.5,
		MinRequests:      20,
		Timeout:          60 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker wraps a gobreaker.CircuitBreaker
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a circuit breaker. Errors that are not
// retryable (a missing user, a malformed answer) do not count as failures.
func NewCircuitBreaker(config *Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: uint32(max(config.HalfOpenMaxCalls, 1)), // #nosec G115 - small configured value
		Interval:    config.Timeout,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if int(counts.ConsecutiveFailures) >= config.MaxFailures {
				return true
			}
			if int(counts.Requests) < config.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    convertState(from),
				"to":      convertState(to),
			}).Warn("Circuit breaker state changed")
		},
	}
	return &CircuitBreaker{name: config.Name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn unless the breaker is open
func (b *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.NewProviderError(b.name, 0, ErrOpen)
	}
	return err
}

// GetState returns the current state
func (b *CircuitBreaker) GetState() State {
	return convertState(b.cb.State())
}

// Stats is a snapshot of the breaker counters
type Stats struct {
	Name             string  `json:"name"`
	State            State   `json:"state"`
	Requests         uint32  `json:"requests"`
	Failures         uint32  `json:"failures"`
	ConsecutiveFails uint32  `json:"consecutiveFails"`
	FailureRate      float64 `json:"failureRate"`
}

// GetStats returns the counters of the current interval
func (b *CircuitBreaker) GetStats() *Stats {
	counts := b.cb.Counts()
	stats := &Stats{
		Name:             b.name,
		State:            b.GetState(),
		Requests:         counts.Requests,
		Failures:         counts.TotalFailures,
		ConsecutiveFails: counts.ConsecutiveFailures,
	}
	if counts.Requests > 0 {
		stats.FailureRate = float64(counts.TotalFailures) / float64(counts.Requests)
	}
	return stats
}

func convertState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
