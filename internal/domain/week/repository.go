package week

import (
	"context"
)

// Repository defines persistence operations for the progression ledger.
//
// Implementations must back (student_id, week_number) with a uniqueness
// constraint and surface violations as shared.ErrWeekNumberTaken: ordinal
// allocation for special weeks is not serialized, so the constraint is what
// turns a concurrent-creation race into a retriable conflict instead of a
// silent duplicate.
type Repository interface {
	// GetByID returns a week by row ID. Returns shared.ErrWeekNotFound when missing.
	GetByID(ctx context.Context, id string) (*Week, error)

	// GetByNumber returns the week at a stored number for a student.
	// Returns shared.ErrWeekNotFound when missing.
	GetByNumber(ctx context.Context, studentID string, weekNumber int) (*Week, error)

	// ListByStudent returns all weeks for a student ordered by week_number.
	ListByStudent(ctx context.Context, studentID string) ([]*Week, error)

	// FirstIncompleteRegular returns the student's current week: the
	// lowest-numbered incomplete week below the special threshold.
	// Returns shared.ErrWeekNotFound when every regular week is completed
	// or none exist.
	FirstIncompleteRegular(ctx context.Context, studentID string) (*Week, error)

	// CountSpecials counts weeks in the special range for a base
	// (base*100 <= week_number < (base+1)*100).
	CountSpecials(ctx context.Context, studentID string, base int) (int, error)

	// Create persists a new week. Returns shared.ErrWeekNumberTaken on a
	// (student_id, week_number) collision.
	Create(ctx context.Context, w *Week) error

	// Update persists an existing week.
	Update(ctx context.Context, w *Week) error

	// Delete removes a week row by ID. The caller is responsible for
	// removing dependent notes first and for running the reopen cascade.
	Delete(ctx context.Context, id string) error

	// DeleteByStudent removes every week row for a student (reassignment wipe).
	DeleteByStudent(ctx context.Context, studentID string) error
}
