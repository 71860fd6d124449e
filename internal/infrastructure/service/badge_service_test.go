package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *BadgeClient {
	t.Helper()
	cfg := DefaultBadgeClientConfig(baseURL)
	cfg.Timeout = 2 * time.Second
	cfg.Logger = logger.New(logger.Options{Output: io.Discard})
	return NewBadgeClient(cfg)
}

func TestEvaluateBadgesPostsStudentAndWeek(t *testing.T) {
	var got evaluateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/badges/evaluate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.EvaluateBadges(context.Background(), "student-1", 7)

	require.NoError(t, err)
	assert.Equal(t, "student-1", got.StudentID)
	assert.Equal(t, 7, got.WeekNumber)
}

func TestEvaluateBadgesRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.EvaluateBadges(context.Background(), "student-1", 7)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEvaluateBadgesGivesUpOnPersistentOutage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.EvaluateBadges(context.Background(), "student-1", 7)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEvaluateBadgesDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.EvaluateBadges(context.Background(), "student-1", 7)

	require.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEvaluateBadgesTripsBreakerWhileServiceIsDown(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	// First call exhausts its retries and trips the breaker.
	err := client.EvaluateBadges(context.Background(), "student-1", 7)
	require.Error(t, err)
	seen := calls.Load()
	assert.True(t, client.breaker.IsOpen())

	// Subsequent calls fail fast without touching the network.
	err = client.EvaluateBadges(context.Background(), "student-1", 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	assert.Equal(t, seen, calls.Load())
}
