// Package adapter provides the Metamob API client used to refresh the
// local user directory and monster snapshots.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/monster-tracker/internal/circuitbreaker"
	"github.com/monster-tracker/internal/config"
	apperrors "github.com/monster-tracker/internal/errors"
	"github.com/monster-tracker/internal/logging"
	"github.com/monster-tracker/internal/metrics"
	"github.com/monster-tracker/internal/models"
	"github.com/monster-tracker/internal/retry"
)

// APIKeyHeader carries the Metamob API key
const APIKeyHeader = "HTTP-X-APIKEY"

const (
	endpointMonsters = "monsters"
	endpointProfile  = "profile"

	maxErrorBody = 512
)

// MetamobClient calls the Metamob REST API. Requests are paced by a shared
// limiter, retried with exponential backoff and guarded by a circuit breaker.
type MetamobClient struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig *retry.RetryConfig
	metrics     *metrics.Registry
}

// MetamobOption customizes a MetamobClient
type MetamobOption func(*MetamobClient)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) MetamobOption {
	return func(c *MetamobClient) {
		c.httpClient = client
	}
}

// WithRetryConfig replaces the retry policy
func WithRetryConfig(cfg *retry.RetryConfig) MetamobOption {
	return func(c *MetamobClient) {
		c.retryConfig = cfg
	}
}

// WithCircuitBreaker replaces the circuit breaker
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) MetamobOption {
	return func(c *MetamobClient) {
		c.breaker = cb
	}
}

// WithMetrics records every request in the registry
func WithMetrics(m *metrics.Registry) MetamobOption {
	return func(c *MetamobClient) {
		c.metrics = m
	}
}

// NewMetamobClient creates a new Metamob API client
func NewMetamobClient(cfg *config.MetamobConfig, opts ...MetamobOption) *MetamobClient {
	limit := rate.Inf
	if cfg.RequestDelay > 0 {
		limit = rate.Every(cfg.RequestDelay)
	}

	retryConfig := retry.DefaultRetryConfig()
	retryConfig.MaxAttempts = max(cfg.MaxRetries, 0) + 1

	c := &MetamobClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(limit, 1),
		breaker:     circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("metamob")),
		retryConfig: retryConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchMonsters returns the monster list of a user. With onlyArchi only
// archimonstre records are kept.
func (c *MetamobClient) FetchMonsters(ctx context.Context, username string, onlyArchi bool) ([]models.ItemRecord, error) {
	var records []models.ItemRecord
	path := fmt.Sprintf("/utilisateurs/%s/monstres", url.PathEscape(username))
	if err := c.getJSON(ctx, endpointMonsters, path, &records); err != nil {
		return nil, err
	}

	if !onlyArchi {
		return records, nil
	}
	kept := make([]models.ItemRecord, 0, len(records))
	for _, r := range records {
		if r.IsArchimonstre() {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// FetchProfile returns the profile of a user
func (c *MetamobClient) FetchProfile(ctx context.Context, username string) (models.UserProfile, error) {
	var profile models.UserProfile
	path := fmt.Sprintf("/utilisateurs/%s", url.PathEscape(username))
	if err := c.getJSON(ctx, endpointProfile, path, &profile); err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.NewProviderError(endpointProfile, http.StatusOK, fmt.Errorf("empty profile for %s", username))
	}
	return profile, nil
}

func (c *MetamobClient) getJSON(ctx context.Context, endpoint, path string, dest interface{}) error {
	if c.apiKey == "" {
		return apperrors.NewInvalidParameterError("METAMOB_API_KEY", "no API key configured")
	}

	return retry.Do(ctx, c.retryConfig, func(ctx context.Context, attempt int) error {
		return c.breaker.Execute(ctx, func() error {
			return c.doGet(ctx, endpoint, path, dest)
		})
	})
}

func (c *MetamobClient) doGet(ctx context.Context, endpoint, path string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APIKeyHeader, c.apiKey)

	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"path":     path,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProviderRequest(endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewProviderError(endpoint, 0, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveProviderRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.WithField("status", resp.StatusCode).Warnf("Metamob API request failed: %s", strings.TrimSpace(string(body)))
		return apperrors.NewProviderError(endpoint, resp.StatusCode,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return apperrors.NewProviderError(endpoint, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	logger.Debug("Metamob API request succeeded")
	return nil
}
