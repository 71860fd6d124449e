package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// UpsertNoteCommand creates or updates the daily note for a week/day pair.
//
// The role arrives as an explicit parameter from the external auth layer and
// gates which fields may be written. The UI hides disallowed controls, but
// the store never trusts that: a non-privileged field in the request is
// rejected outright rather than silently dropped.
type UpsertNoteCommand struct {
	// WeekID - the owning ledger entry.
	WeekID string

	// Day - class day key.
	Day shared.DayType

	// Actor - writing user's ID (becomes created_by on first write).
	Actor string

	// Role - the actor's resolved role.
	Role shared.Role

	// Content - fields to write; nil fields are left untouched.
	Content note.Content
}

// Validate validates the command.
func (c UpsertNoteCommand) Validate() error {
	if strings.TrimSpace(c.WeekID) == "" {
		return errors.New("upsert_note: week_id is required")
	}
	if !c.Day.IsValid() {
		return shared.ErrInvalidDayType
	}
	if strings.TrimSpace(c.Actor) == "" {
		return errors.New("upsert_note: actor is required")
	}
	if !c.Role.IsValid() {
		return errors.New("upsert_note: role is required")
	}
	if c.Content.IsEmpty() {
		return shared.ErrNoWritableFields
	}
	return nil
}

// UpsertNoteHandler handles the UpsertNoteCommand.
type UpsertNoteHandler struct {
	weekRepo  week.Repository
	noteRepo  note.Repository
	publisher shared.EventPublisher
}

// NewUpsertNoteHandler creates a new UpsertNoteHandler.
func NewUpsertNoteHandler(weekRepo week.Repository, noteRepo note.Repository, publisher shared.EventPublisher) *UpsertNoteHandler {
	return &UpsertNoteHandler{
		weekRepo:  weekRepo,
		noteRepo:  noteRepo,
		publisher: publisher,
	}
}

// Handle executes the command. The upsert is replay-safe: the same actor
// double-submitting the same fields converges on the same row.
func (h *UpsertNoteHandler) Handle(ctx context.Context, cmd UpsertNoteCommand) (*note.Note, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("upsert_note: validation failed: %w", err)
	}

	if err := cmd.Content.CheckPermissions(cmd.Role); err != nil {
		return nil, err
	}

	// The week must exist; notes never dangle.
	if _, err := h.weekRepo.GetByID(ctx, cmd.WeekID); err != nil {
		return nil, err
	}

	n, err := h.noteRepo.Get(ctx, cmd.WeekID, cmd.Day)
	switch {
	case err == nil:
		// Existing note, apply on top.
	case shared.IsNotFound(err):
		n, err = note.NewNote(uuid.NewString(), cmd.WeekID, cmd.Day, cmd.Actor)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	n.Apply(cmd.Content)
	if err := h.noteRepo.Upsert(ctx, n); err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewNoteSavedEvent(cmd.WeekID, cmd.Day.String(), cmd.Actor, cmd.Role.String()))

	return n, nil
}
