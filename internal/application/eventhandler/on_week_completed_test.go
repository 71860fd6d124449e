package eventhandler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
	"github.com/linguahub/progression-hub/pkg/logger"
)

type fakeEvaluator struct {
	mu    sync.Mutex
	calls []int
	err   error
}

func (f *fakeEvaluator) EvaluateBadges(_ context.Context, _ string, weekNumber int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, weekNumber)
	return f.err
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (f *fakeCache) GetCurrentWeek(context.Context, string) (*week.Week, error) {
	return nil, errors.New("miss")
}

func (f *fakeCache) SetCurrentWeek(context.Context, string, *week.Week) error { return nil }

func (f *fakeCache) InvalidateCurrentWeek(_ context.Context, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, studentID)
	return f.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func TestOnWeekCompletedEvaluatesBadges(t *testing.T) {
	eval := &fakeEvaluator{}
	h := NewOnWeekCompletedHandler(eval, quietLogger(), DefaultWeekCompletedConfig())

	event := shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")
	require.NoError(t, h.Handle(event))

	assert.Equal(t, []int{3}, eval.calls)
}

func TestOnWeekCompletedSwallowsEvaluatorError(t *testing.T) {
	eval := &fakeEvaluator{err: errors.New("badge service down")}
	h := NewOnWeekCompletedHandler(eval, quietLogger(), DefaultWeekCompletedConfig())

	event := shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")
	assert.NoError(t, h.Handle(event))
}

func TestOnWeekCompletedIgnoresOtherEvents(t *testing.T) {
	eval := &fakeEvaluator{}
	h := NewOnWeekCompletedHandler(eval, quietLogger(), DefaultWeekCompletedConfig())

	event := shared.NewWeekReopenedEvent("student-1", "week-1", 3, false)
	require.NoError(t, h.Handle(event))
	assert.Empty(t, eval.calls)
}

func TestOnLedgerChangedInvalidatesCache(t *testing.T) {
	cache := &fakeCache{}
	h := NewOnLedgerChangedHandler(cache, quietLogger())

	require.NoError(t, h.Handle(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")))
	require.NoError(t, h.Handle(shared.NewWeekReopenedEvent("student-1", "week-1", 3, true)))

	assert.Equal(t, []string{"student-1", "student-1"}, cache.invalidated)
}

func TestOnLedgerChangedToleratesCacheError(t *testing.T) {
	cache := &fakeCache{err: errors.New("redis down")}
	h := NewOnLedgerChangedHandler(cache, quietLogger())

	assert.NoError(t, h.Handle(shared.NewWeekCompletedEvent("student-1", "week-1", 3, "teacher-1")))
}
