package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// DeleteSpecialWeekCommand removes a reinforcement week together with its
// notes. Regular weeks are never deletable directly.
//
// Reopen cascade: when the deleted week was the last special for its base,
// the base week is reopened so the student lands back on the material the
// reinforcement was covering.
type DeleteSpecialWeekCommand struct {
	// WeekID - row ID of the special week to delete.
	WeekID string
}

// Validate validates the command.
func (c DeleteSpecialWeekCommand) Validate() error {
	if strings.TrimSpace(c.WeekID) == "" {
		return errors.New("delete_special_week: week_id is required")
	}
	return nil
}

// DeleteSpecialWeekResult contains the result of the deletion.
type DeleteSpecialWeekResult struct {
	// DeletedWeekNumber - stored number of the removed week.
	DeletedWeekNumber int

	// BaseReopened - true when the reopen cascade fired.
	BaseReopened bool

	// BaseWeek - the reopened base week, nil when no cascade fired.
	BaseWeek *week.Week
}

// DeleteSpecialWeekHandler handles the DeleteSpecialWeekCommand.
type DeleteSpecialWeekHandler struct {
	weekRepo  week.Repository
	noteRepo  note.Repository
	publisher shared.EventPublisher
}

// NewDeleteSpecialWeekHandler creates a new DeleteSpecialWeekHandler.
func NewDeleteSpecialWeekHandler(weekRepo week.Repository, noteRepo note.Repository, publisher shared.EventPublisher) *DeleteSpecialWeekHandler {
	return &DeleteSpecialWeekHandler{
		weekRepo:  weekRepo,
		noteRepo:  noteRepo,
		publisher: publisher,
	}
}

// Handle executes the command. Notes are deleted first, then the week; both
// failures abort hard (the caller retries). The cascade evaluation runs last
// against the post-delete state.
func (h *DeleteSpecialWeekHandler) Handle(ctx context.Context, cmd DeleteSpecialWeekCommand) (*DeleteSpecialWeekResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("delete_special_week: validation failed: %w", err)
	}

	w, err := h.weekRepo.GetByID(ctx, cmd.WeekID)
	if err != nil {
		return nil, err
	}
	if !w.IsSpecial() {
		return nil, shared.ErrNotSpecialWeek
	}

	if err := h.noteRepo.DeleteByWeek(ctx, w.ID); err != nil {
		return nil, fmt.Errorf("delete_special_week: deleting notes: %w", err)
	}
	if err := h.weekRepo.Delete(ctx, w.ID); err != nil {
		return nil, fmt.Errorf("delete_special_week: deleting week: %w", err)
	}

	base := w.Kind().Base
	result := &DeleteSpecialWeekResult{DeletedWeekNumber: w.WeekNumber}

	remaining, err := h.weekRepo.CountSpecials(ctx, w.StudentID, base)
	if err != nil {
		return nil, err
	}

	if remaining == 0 {
		baseWeek, err := h.weekRepo.GetByNumber(ctx, w.StudentID, base)
		switch {
		case err == nil:
			if baseWeek.IsCompleted {
				baseWeek.Reopen()
				if err := h.weekRepo.Update(ctx, baseWeek); err != nil {
					return nil, err
				}
				result.BaseReopened = true
				_ = h.publisher.Publish(shared.NewWeekReopenedEvent(w.StudentID, baseWeek.ID, base, true))
			}
			result.BaseWeek = baseWeek
		case !shared.IsNotFound(err):
			return nil, err
			// Base week missing: nothing to reopen, the deletion stands.
		}
	}

	_ = h.publisher.Publish(shared.NewSpecialWeekDeletedEvent(w.StudentID, w.WeekNumber, base, result.BaseReopened))

	return result, nil
}
