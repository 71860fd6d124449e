package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/week"
)

// RenameWeekCommand replaces a week's theme. Partial update, no side effects.
type RenameWeekCommand struct {
	// WeekID - row ID of the week.
	WeekID string

	// Theme - new display theme.
	Theme string
}

// Validate validates the command.
func (c RenameWeekCommand) Validate() error {
	if strings.TrimSpace(c.WeekID) == "" {
		return errors.New("rename_week: week_id is required")
	}
	if strings.TrimSpace(c.Theme) == "" {
		return errors.New("rename_week: theme is required")
	}
	return nil
}

// RenameWeekHandler handles the RenameWeekCommand.
type RenameWeekHandler struct {
	weekRepo week.Repository
}

// NewRenameWeekHandler creates a new RenameWeekHandler.
func NewRenameWeekHandler(weekRepo week.Repository) *RenameWeekHandler {
	return &RenameWeekHandler{weekRepo: weekRepo}
}

// Handle executes the command.
func (h *RenameWeekHandler) Handle(ctx context.Context, cmd RenameWeekCommand) (*week.Week, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("rename_week: validation failed: %w", err)
	}

	w, err := h.weekRepo.GetByID(ctx, cmd.WeekID)
	if err != nil {
		return nil, err
	}

	w.Rename(cmd.Theme)
	if err := h.weekRepo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}
