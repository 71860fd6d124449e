// Package query contains read operations (CQRS - Queries).
// Queries never mutate the ledger; they may consult a cache in front of
// storage when one is wired in.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/week"
)

// CurrentWeekCache caches the current-week lookup. Implementations are
// best-effort: a cache error is treated as a miss, never surfaced.
type CurrentWeekCache interface {
	// GetCurrentWeek returns the cached week, or an error on a miss.
	GetCurrentWeek(ctx context.Context, studentID string) (*week.Week, error)

	// SetCurrentWeek stores the week.
	SetCurrentWeek(ctx context.Context, studentID string, w *week.Week) error

	// InvalidateCurrentWeek drops the cached entry.
	InvalidateCurrentWeek(ctx context.Context, studentID string) error
}

// GetCurrentWeekQuery returns a student's current week: the lowest-numbered
// incomplete regular week. Special weeks are never current; they are worked
// alongside whatever regular week is open.
type GetCurrentWeekQuery struct {
	// StudentID - the student to look up.
	StudentID string
}

// Validate validates the query.
func (q GetCurrentWeekQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return errors.New("get_current_week: student_id is required")
	}
	return nil
}

// GetCurrentWeekHandler handles the GetCurrentWeekQuery.
type GetCurrentWeekHandler struct {
	weekRepo week.Repository
	cache    CurrentWeekCache
}

// NewGetCurrentWeekHandler creates a new GetCurrentWeekHandler.
// The cache may be nil; the handler then always reads storage.
func NewGetCurrentWeekHandler(weekRepo week.Repository, cache CurrentWeekCache) *GetCurrentWeekHandler {
	return &GetCurrentWeekHandler{
		weekRepo: weekRepo,
		cache:    cache,
	}
}

// Handle executes the query. Returns shared.ErrWeekNotFound when the student
// has no open regular week (fresh ledger or everything completed).
func (h *GetCurrentWeekHandler) Handle(ctx context.Context, q GetCurrentWeekQuery) (*week.Week, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		if w, err := h.cache.GetCurrentWeek(ctx, q.StudentID); err == nil && w != nil {
			return w, nil
		}
	}

	w, err := h.weekRepo.FirstIncompleteRegular(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.SetCurrentWeek(ctx, q.StudentID, w)
	}
	return w, nil
}
