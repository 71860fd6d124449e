// Package command contains write operations (CQRS - Commands).
// Commands change the state of the progression ledger; each handler is a
// thin orchestration over the domain repositories and the event bus.
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

// UpsertWeekCommand creates a ledger entry or replaces the theme/objectives
// of an existing one. The caller keys on (student, week_number), so a storage
// conflict can only happen on a create race.
type UpsertWeekCommand struct {
	// StudentID - the owning student.
	StudentID string

	// WeekNumber - stored week number (regular or encoded special).
	WeekNumber int

	// Theme - display theme.
	Theme string

	// Objectives - free-form objectives.
	Objectives string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c UpsertWeekCommand) Validate() error {
	if strings.TrimSpace(c.StudentID) == "" {
		return errors.New("upsert_week: student_id is required")
	}
	if c.WeekNumber <= 0 {
		return shared.ErrInvalidWeekNumber
	}
	return nil
}

// UpsertWeekResult contains the result of the upsert.
type UpsertWeekResult struct {
	// Week - the created or updated ledger entry.
	Week *week.Week

	// Created - true when a new row was inserted.
	Created bool
}

// UpsertWeekHandler handles the UpsertWeekCommand.
type UpsertWeekHandler struct {
	weekRepo week.Repository
}

// NewUpsertWeekHandler creates a new UpsertWeekHandler.
func NewUpsertWeekHandler(weekRepo week.Repository) *UpsertWeekHandler {
	return &UpsertWeekHandler{weekRepo: weekRepo}
}

// Handle executes the command.
func (h *UpsertWeekHandler) Handle(ctx context.Context, cmd UpsertWeekCommand) (*UpsertWeekResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("upsert_week: validation failed: %w", err)
	}

	existing, err := h.weekRepo.GetByNumber(ctx, cmd.StudentID, cmd.WeekNumber)
	switch {
	case err == nil:
		existing.SetContent(cmd.Theme, cmd.Objectives)
		if err := h.weekRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return &UpsertWeekResult{Week: existing}, nil

	case shared.IsNotFound(err):
		created, err := week.NewWeek(week.NewWeekParams{
			ID:         uuid.NewString(),
			StudentID:  cmd.StudentID,
			WeekNumber: cmd.WeekNumber,
			Theme:      cmd.Theme,
			Objectives: cmd.Objectives,
		})
		if err != nil {
			return nil, err
		}
		if err := h.weekRepo.Create(ctx, created); err != nil {
			return nil, err
		}
		return &UpsertWeekResult{Week: created, Created: true}, nil

	default:
		return nil, err
	}
}
