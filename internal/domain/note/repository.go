package note

import (
	"context"

	"github.com/linguahub/progression-hub/internal/domain/shared"
)

// Repository defines persistence operations for daily notes.
//
// Upsert must be backed by a uniqueness constraint on (week_id, day_type)
// and resolve collisions as an update - a double-submit of the same note is
// safe to replay.
type Repository interface {
	// Get returns the note for a week/day pair.
	// Returns shared.ErrNoteNotFound when missing.
	Get(ctx context.Context, weekID string, day shared.DayType) (*Note, error)

	// ListByWeek returns all notes for a week in fixed Tue->Fri order.
	// This is the stable read path the PDF export consumes.
	ListByWeek(ctx context.Context, weekID string) ([]*Note, error)

	// Upsert inserts the note or, on a (week_id, day_type) collision,
	// updates the existing row's content fields.
	Upsert(ctx context.Context, n *Note) error

	// DeleteByWeek removes all notes for one week (special-week deletion).
	DeleteByWeek(ctx context.Context, weekID string) error

	// DeleteByStudent removes all notes across all of a student's weeks
	// (reassignment wipe).
	DeleteByStudent(ctx context.Context, studentID string) error
}
