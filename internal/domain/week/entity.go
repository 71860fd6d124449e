// Package week contains the progression ledger: the sequence of curriculum
// weeks a student moves through inside a level, the numeric encoding for
// reinforcement (special) weeks, and the completion state machine.
//
// Numbering invariant: week numbers below 100 are regular curriculum slots
// (1..12, one per position); numbers at or above 100 are special weeks
// encoded as base*100 + ordinal, where base is the regular week being
// reinforced and ordinal is a 1-based sequence among specials for that base.
package week

import (
	"fmt"
	"strings"
	"time"

	"github.com/linguahub/progression-hub/internal/domain/shared"
)

const (
	// SpecialBaseFactor is the multiplier of the special-week encoding.
	SpecialBaseFactor = 100

	// MaxRegularWeek is the last regular curriculum slot. Completing it
	// never cascades.
	MaxRegularWeek = 12
)

// Kind is the tagged view of a week number: either a regular curriculum
// slot or a special (reinforcement) week. The integer encoding exists only
// at the storage edge; everything above it works with Kind.
type Kind struct {
	// Base is the regular week slot, or the slot a special week reinforces.
	Base int

	// Ordinal is 0 for regular weeks and the 1-based sequence number for
	// specials sharing the same base.
	Ordinal int
}

// IsSpecial reports whether the kind denotes a reinforcement week.
func (k Kind) IsSpecial() bool {
	return k.Ordinal > 0
}

// Encode converts the kind back to its integer week number.
func (k Kind) Encode() int {
	if !k.IsSpecial() {
		return k.Base
	}
	return k.Base*SpecialBaseFactor + k.Ordinal
}

// String renders the kind the way the UI labels weeks.
func (k Kind) String() string {
	if k.IsSpecial() {
		return fmt.Sprintf("Week %d-%d+", k.Base, k.Ordinal)
	}
	return fmt.Sprintf("Week %d", k.Base)
}

// Regular builds the kind for a regular curriculum slot.
func Regular(number int) Kind {
	return Kind{Base: number}
}

// Special builds the kind for a reinforcement week.
func Special(base, ordinal int) Kind {
	return Kind{Base: base, Ordinal: ordinal}
}

// Encode returns base*100 + ordinal, the stored number of a special week.
func Encode(base, ordinal int) int {
	return Special(base, ordinal).Encode()
}

// Decode splits a stored week number into its kind. Numbers below 100
// decode to a regular kind with ordinal 0.
func Decode(weekNumber int) Kind {
	if weekNumber < SpecialBaseFactor {
		return Kind{Base: weekNumber}
	}
	return Kind{
		Base:    weekNumber / SpecialBaseFactor,
		Ordinal: weekNumber % SpecialBaseFactor,
	}
}

// IsSpecialNumber reports whether a stored week number denotes a special week.
func IsSpecialNumber(weekNumber int) bool {
	return weekNumber >= SpecialBaseFactor
}

// SpecialRange returns the [low, high) stored-number interval holding every
// special week for a base. Used to count ordinals and to drive the reopen
// cascade after a deletion.
func SpecialRange(base int) (low, high int) {
	return base * SpecialBaseFactor, (base + 1) * SpecialBaseFactor
}

// RegularTheme builds the default theme for a regular week at a level.
func RegularTheme(level shared.Level, weekNumber int) string {
	return fmt.Sprintf("Level %s - Week %d", level, weekNumber)
}

// SpecialTheme builds the theme for a reinforcement week.
func SpecialTheme(base, ordinal int) string {
	return fmt.Sprintf("Week %d-%d+", base, ordinal)
}

// Week is one progression ledger entry. (StudentID, WeekNumber) is unique.
type Week struct {
	// ID - row identifier (UUID).
	ID string

	// StudentID - the owning student.
	StudentID string

	// WeekNumber - stored number; see package doc for the encoding.
	WeekNumber int

	// Theme - display theme for the week.
	Theme string

	// Objectives - free-form learning objectives.
	Objectives string

	// IsCompleted - completion flag.
	IsCompleted bool

	// CompletedBy - actor who completed the week (empty while open).
	CompletedBy string

	// CompletedAt - completion time (nil while open).
	CompletedAt *time.Time

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last mutation time.
	UpdatedAt time.Time
}

// NewWeekParams contains parameters for creating a ledger entry.
type NewWeekParams struct {
	ID         string
	StudentID  string
	WeekNumber int
	Theme      string
	Objectives string
}

// NewWeek creates a ledger entry with validation. New weeks always start open.
func NewWeek(params NewWeekParams) (*Week, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("week", "New", shared.ErrInvalidID, "week id is required")
	}
	if strings.TrimSpace(params.StudentID) == "" {
		return nil, shared.NewDomainError("week", "New", shared.ErrInvalidID, "student id is required")
	}
	if params.WeekNumber <= 0 {
		return nil, shared.ErrInvalidWeekNumber
	}

	now := time.Now().UTC()
	return &Week{
		ID:         params.ID,
		StudentID:  params.StudentID,
		WeekNumber: params.WeekNumber,
		Theme:      strings.TrimSpace(params.Theme),
		Objectives: strings.TrimSpace(params.Objectives),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Kind returns the decoded kind of this week.
func (w *Week) Kind() Kind {
	return Decode(w.WeekNumber)
}

// IsSpecial reports whether this is a reinforcement week.
func (w *Week) IsSpecial() bool {
	return IsSpecialNumber(w.WeekNumber)
}

// Complete marks the week completed by the given actor. Completing an
// already-completed week refreshes the actor and timestamp; the caller's
// cascade logic keys on whether the next week exists, so a replay stays
// harmless.
func (w *Week) Complete(actor string) {
	now := time.Now().UTC()
	w.IsCompleted = true
	w.CompletedBy = actor
	w.CompletedAt = &now
	w.UpdatedAt = now
}

// Reopen clears the completion state unconditionally. Reopening is the only
// backward transition; an already-created next week is left in place.
func (w *Week) Reopen() {
	w.IsCompleted = false
	w.CompletedBy = ""
	w.CompletedAt = nil
	w.UpdatedAt = time.Now().UTC()
}

// Rename replaces the theme. No side effects.
func (w *Week) Rename(theme string) {
	w.Theme = strings.TrimSpace(theme)
	w.UpdatedAt = time.Now().UTC()
}

// SetContent replaces theme and objectives together (upsertWeek semantics).
func (w *Week) SetContent(theme, objectives string) {
	w.Theme = strings.TrimSpace(theme)
	w.Objectives = strings.TrimSpace(objectives)
	w.UpdatedAt = time.Now().UTC()
}

// CascadeTarget returns the regular week number the completion cascade
// should create next, and whether a cascade applies at all. Special weeks
// and week 12 never cascade.
func (w *Week) CascadeTarget() (int, bool) {
	if w.IsSpecial() {
		return 0, false
	}
	next := w.WeekNumber + 1
	if next > MaxRegularWeek {
		return 0, false
	}
	return next, true
}
