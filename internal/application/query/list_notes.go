package query

import (
	"context"
	"errors"
	"strings"

	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// Students may read notes of completed weeks and of their current week.
// Staff read everything. The gate exists so an upcoming week's prepared
// notes don't leak to the student ahead of time.
func checkNoteVisibility(ctx context.Context, weekRepo week.Repository, w *week.Week, role shared.Role) error {
	if role.IsStaff() {
		return nil
	}
	if w.IsCompleted {
		return nil
	}

	current, err := weekRepo.FirstIncompleteRegular(ctx, w.StudentID)
	if err == nil && current.ID == w.ID {
		return nil
	}
	if err != nil && !shared.IsNotFound(err) {
		return err
	}

	return shared.NewDomainError("note", "Visibility", shared.ErrPermission,
		"notes for this week are not visible yet")
}

// ListNotesForWeekQuery returns a week's notes in fixed Tue-Fri order.
// This is the read path the weekly PDF export consumes, so the order is part
// of the contract, not a presentation nicety.
type ListNotesForWeekQuery struct {
	// WeekID - the ledger entry whose notes to list.
	WeekID string

	// Role - the requester's resolved role.
	Role shared.Role
}

// Validate validates the query.
func (q ListNotesForWeekQuery) Validate() error {
	if strings.TrimSpace(q.WeekID) == "" {
		return errors.New("list_notes: week_id is required")
	}
	if !q.Role.IsValid() {
		return errors.New("list_notes: role is required")
	}
	return nil
}

// ListNotesForWeekHandler handles the ListNotesForWeekQuery.
type ListNotesForWeekHandler struct {
	weekRepo week.Repository
	noteRepo note.Repository
}

// NewListNotesForWeekHandler creates a new ListNotesForWeekHandler.
func NewListNotesForWeekHandler(weekRepo week.Repository, noteRepo note.Repository) *ListNotesForWeekHandler {
	return &ListNotesForWeekHandler{
		weekRepo: weekRepo,
		noteRepo: noteRepo,
	}
}

// Handle executes the query. Days without a saved note are simply absent
// from the result.
func (h *ListNotesForWeekHandler) Handle(ctx context.Context, q ListNotesForWeekQuery) ([]*note.Note, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	w, err := h.weekRepo.GetByID(ctx, q.WeekID)
	if err != nil {
		return nil, err
	}
	if err := checkNoteVisibility(ctx, h.weekRepo, w, q.Role); err != nil {
		return nil, err
	}

	return h.noteRepo.ListByWeek(ctx, q.WeekID)
}

// GetNoteQuery returns a single note for a week/day pair, subject to the
// same visibility rule as the listing.
type GetNoteQuery struct {
	// WeekID - the owning ledger entry.
	WeekID string

	// Day - class day key.
	Day shared.DayType

	// Role - the requester's resolved role.
	Role shared.Role
}

// Validate validates the query.
func (q GetNoteQuery) Validate() error {
	if strings.TrimSpace(q.WeekID) == "" {
		return errors.New("get_note: week_id is required")
	}
	if !q.Day.IsValid() {
		return shared.ErrInvalidDayType
	}
	if !q.Role.IsValid() {
		return errors.New("get_note: role is required")
	}
	return nil
}

// GetNoteHandler handles the GetNoteQuery.
type GetNoteHandler struct {
	weekRepo week.Repository
	noteRepo note.Repository
}

// NewGetNoteHandler creates a new GetNoteHandler.
func NewGetNoteHandler(weekRepo week.Repository, noteRepo note.Repository) *GetNoteHandler {
	return &GetNoteHandler{
		weekRepo: weekRepo,
		noteRepo: noteRepo,
	}
}

// Handle executes the query.
func (h *GetNoteHandler) Handle(ctx context.Context, q GetNoteQuery) (*note.Note, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	w, err := h.weekRepo.GetByID(ctx, q.WeekID)
	if err != nil {
		return nil, err
	}
	if err := checkNoteVisibility(ctx, h.weekRepo, w, q.Role); err != nil {
		return nil, err
	}

	return h.noteRepo.Get(ctx, q.WeekID, q.Day)
}
