package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// ReopenWeekCommand clears a week's completion state. Reopening never
// cascades: a next week already created by a completion stays in place.
type ReopenWeekCommand struct {
	// WeekID - row ID of the week to reopen.
	WeekID string
}

// Validate validates the command.
func (c ReopenWeekCommand) Validate() error {
	if strings.TrimSpace(c.WeekID) == "" {
		return errors.New("reopen_week: week_id is required")
	}
	return nil
}

// ReopenWeekHandler handles the ReopenWeekCommand.
type ReopenWeekHandler struct {
	weekRepo  week.Repository
	publisher shared.EventPublisher
}

// NewReopenWeekHandler creates a new ReopenWeekHandler.
func NewReopenWeekHandler(weekRepo week.Repository, publisher shared.EventPublisher) *ReopenWeekHandler {
	return &ReopenWeekHandler{
		weekRepo:  weekRepo,
		publisher: publisher,
	}
}

// Handle executes the command.
func (h *ReopenWeekHandler) Handle(ctx context.Context, cmd ReopenWeekCommand) (*week.Week, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("reopen_week: validation failed: %w", err)
	}

	w, err := h.weekRepo.GetByID(ctx, cmd.WeekID)
	if err != nil {
		return nil, err
	}

	w.Reopen()
	if err := h.weekRepo.Update(ctx, w); err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewWeekReopenedEvent(w.StudentID, w.ID, w.WeekNumber, false))

	return w, nil
}
