package query

import (
	"context"
	"errors"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/topic"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// UncalibratedTopicsQuery lists catalog topics for a regular week slot that
// still lack a calibration color for the student. Advisory only: the UI
// shows the result as a confirmation prompt before completing, never as a
// hard block.
type UncalibratedTopicsQuery struct {
	// StudentID - the student being checked.
	StudentID string

	// WeekNumber - the regular week slot. Special weeks carry no catalog
	// topics of their own.
	WeekNumber int
}

// Validate validates the query.
func (q UncalibratedTopicsQuery) Validate() error {
	if strings.TrimSpace(q.StudentID) == "" {
		return errors.New("uncalibrated_topics: student_id is required")
	}
	if q.WeekNumber <= 0 {
		return shared.ErrInvalidWeekNumber
	}
	return nil
}

// UncalibratedTopicsHandler handles the UncalibratedTopicsQuery.
type UncalibratedTopicsHandler struct {
	catalog      topic.Catalog
	progressRepo topic.ProgressRepository
}

// NewUncalibratedTopicsHandler creates a new UncalibratedTopicsHandler.
func NewUncalibratedTopicsHandler(catalog topic.Catalog, progressRepo topic.ProgressRepository) *UncalibratedTopicsHandler {
	return &UncalibratedTopicsHandler{
		catalog:      catalog,
		progressRepo: progressRepo,
	}
}

// Handle executes the query. For a special week number the check runs
// against its base slot, since that is the material being reinforced.
func (h *UncalibratedTopicsHandler) Handle(ctx context.Context, q UncalibratedTopicsQuery) ([]topic.CatalogTopic, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	slot := week.Decode(q.WeekNumber).Base

	topics, err := h.catalog.TopicsForWeek(ctx, slot)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, nil
	}

	progress, err := h.progressRepo.ListByStudent(ctx, q.StudentID)
	if err != nil {
		return nil, err
	}

	return topic.Uncalibrated(topics, progress), nil
}
