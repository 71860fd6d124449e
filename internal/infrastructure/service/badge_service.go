// Package service implements clients for external services the progression
// core depends on. Today that is the badge evaluator, a separate deployment
// that turns week completions into achievement badges.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/pkg/circuitbreaker"
	"github.com/linguahub/progression-hub/pkg/logger"
	"github.com/linguahub/progression-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE SERVICE CLIENT
// Called from the week-completed event handler, so every failure here must
// stay contained; completions never roll back on badge errors.
// ══════════════════════════════════════════════════════════════════════════════

// BadgeClientConfig contains configuration for the badge evaluator client.
type BadgeClientConfig struct {
	// BaseURL is the badge service base URL.
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxAttempts bounds retries for transient failures.
	MaxAttempts int

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultBadgeClientConfig returns sensible defaults.
func DefaultBadgeClientConfig(baseURL string) BadgeClientConfig {
	return BadgeClientConfig{
		BaseURL:     baseURL,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
	}
}

// BadgeClient talks to the badge evaluator over HTTP. It implements the
// BadgeEvaluator contract consumed by the week-completed event handler.
type BadgeClient struct {
	config     BadgeClientConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     *logger.Logger
}

// NewBadgeClient creates a new badge evaluator client.
func NewBadgeClient(config BadgeClientConfig) *BadgeClient {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}

	c := &BadgeClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger,
	}

	c.breaker = circuitbreaker.BadgeServiceBreaker(func(name string, from, to circuitbreaker.State) {
		c.logger.Warn("circuit breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	return c
}

// evaluateRequest is the wire format of the evaluate call.
type evaluateRequest struct {
	StudentID  string `json:"student_id"`
	WeekNumber int    `json:"week_number"`
}

// EvaluateBadges asks the badge service to recompute badges after a week
// completion. Transient failures are retried; a tripped breaker or an
// unreachable service surfaces as shared.ErrBadgeServiceDown.
func (c *BadgeClient) EvaluateBadges(ctx context.Context, studentID string, weekNumber int) error {
	opts := retry.Options{
		MaxAttempts: c.config.MaxAttempts,
		RetryIf:     isTransient,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying badge evaluation",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.StudentID(studentID),
				logger.Err(err),
			)
		},
	}

	err := retry.Do(ctx, opts, func() error {
		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.doEvaluate(ctx, studentID, weekNumber)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) ||
			errors.Is(err, circuitbreaker.ErrTooManyRequests) ||
			errors.Is(err, errBadgeUnavailable) {
			return shared.WrapError("badge", "EvaluateBadges", shared.ErrServiceUnavailable, "badge evaluator is unavailable", err)
		}
		return err
	}
	return nil
}

// errBadgeUnavailable marks retriable transport and server-side failures.
var errBadgeUnavailable = errors.New("badge service unavailable")

// isTransient reports whether a failed attempt is worth retrying.
// An open breaker is not; retrying would only hammer the half-open window.
func isTransient(err error) bool {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return false
	}
	return errors.Is(err, errBadgeUnavailable)
}

// doEvaluate performs one HTTP call.
func (c *BadgeClient) doEvaluate(ctx context.Context, studentID string, weekNumber int) error {
	body, err := json.Marshal(evaluateRequest{
		StudentID:  studentID,
		WeekNumber: weekNumber,
	})
	if err != nil {
		return fmt.Errorf("marshal evaluate request: %w", err)
	}

	url := c.config.BaseURL + "/api/v1/badges/evaluate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadgeUnavailable, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", errBadgeUnavailable, resp.StatusCode, respBody)
	default:
		// 4xx means the request itself is wrong; retrying cannot help.
		return fmt.Errorf("badge evaluation rejected with status %d: %s", resp.StatusCode, respBody)
	}
}
