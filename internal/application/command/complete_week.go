package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// CompleteWeekCommand marks a week completed and, for regular weeks below
// the last curriculum slot, auto-creates the next regular week. Badge
// evaluation happens downstream of the published event and never blocks or
// rolls back the completion.
//
// The advisory uncalibrated-topics check belongs to the caller (see
// query.UncalibratedTopics); by the time this command runs the operator has
// already chosen to complete.
type CompleteWeekCommand struct {
	// WeekID - row ID of the week to complete.
	WeekID string

	// Actor - who completed the week (staff user ID).
	Actor string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c CompleteWeekCommand) Validate() error {
	if strings.TrimSpace(c.WeekID) == "" {
		return errors.New("complete_week: week_id is required")
	}
	if strings.TrimSpace(c.Actor) == "" {
		return errors.New("complete_week: actor is required")
	}
	return nil
}

// CompleteWeekResult contains the result of the completion.
type CompleteWeekResult struct {
	// Week - the completed ledger entry.
	Week *week.Week

	// NextWeek - the regular week created by the cascade, nil when the
	// cascade did not run (special week, week 12, or next already exists).
	NextWeek *week.Week
}

// CompleteWeekHandler handles the CompleteWeekCommand.
type CompleteWeekHandler struct {
	weekRepo  week.Repository
	publisher shared.EventPublisher
}

// NewCompleteWeekHandler creates a new CompleteWeekHandler.
func NewCompleteWeekHandler(weekRepo week.Repository, publisher shared.EventPublisher) *CompleteWeekHandler {
	return &CompleteWeekHandler{
		weekRepo:  weekRepo,
		publisher: publisher,
	}
}

// Handle executes the command.
func (h *CompleteWeekHandler) Handle(ctx context.Context, cmd CompleteWeekCommand) (*CompleteWeekResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_week: validation failed: %w", err)
	}

	w, err := h.weekRepo.GetByID(ctx, cmd.WeekID)
	if err != nil {
		return nil, err
	}

	w.Complete(cmd.Actor)
	if err := h.weekRepo.Update(ctx, w); err != nil {
		return nil, err
	}

	result := &CompleteWeekResult{Week: w}

	if next, ok := w.CascadeTarget(); ok {
		created, err := h.cascade(ctx, w.StudentID, next)
		if err != nil {
			return nil, err
		}
		result.NextWeek = created
	}

	event := shared.NewWeekCompletedEvent(w.StudentID, w.ID, w.WeekNumber, cmd.Actor)
	event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
	_ = h.publisher.Publish(event)

	return result, nil
}

// cascade creates the next regular week if it does not exist yet. A lost
// creation race is fine: somebody else already created it, which is exactly
// the state the cascade wants.
func (h *CompleteWeekHandler) cascade(ctx context.Context, studentID string, next int) (*week.Week, error) {
	_, err := h.weekRepo.GetByNumber(ctx, studentID, next)
	switch {
	case err == nil:
		return nil, nil
	case !shared.IsNotFound(err):
		return nil, err
	}

	level := shared.LevelForWeek(next)
	created, err := week.NewWeek(week.NewWeekParams{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		WeekNumber: next,
		Theme:      week.RegularTheme(level, next),
	})
	if err != nil {
		return nil, err
	}

	if err := h.weekRepo.Create(ctx, created); err != nil {
		if shared.IsConflict(err) {
			return nil, nil
		}
		return nil, err
	}
	return created, nil
}
