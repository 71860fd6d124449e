// Package note contains per-week, per-day class notes and the role-based
// field permission gate. Notes exist for class days only (Tuesday-Friday)
// and are unique per (week, day).
package note

import (
	"strings"
	"time"

	"github.com/linguahub/progression-hub/internal/domain/shared"
)

// Field names a writable content field of a daily note.
type Field string

const (
	FieldClassTopics    Field = "class_topics"
	FieldTutoringTopics Field = "tutoring_topics"
	FieldVocabulary     Field = "vocabulary"
	FieldAchievements   Field = "achievements"
	FieldChallenges     Field = "challenges"
)

// ContentFields lists every writable field of a note.
var ContentFields = []Field{
	FieldClassTopics,
	FieldTutoringTopics,
	FieldVocabulary,
	FieldAchievements,
	FieldChallenges,
}

// AllowedFields returns the set of note fields a role may write.
// This is the whole permission model: a pure function of the role, testable
// without any session state. The UI hides controls it should, but the store
// never trusts that.
//
//	class_topics:     teacher, admin
//	tutoring_topics:  tutor, admin
//	vocabulary, achievements, challenges: teacher, tutor, admin
func AllowedFields(role shared.Role) map[Field]bool {
	switch role {
	case shared.RoleAdmin:
		return map[Field]bool{
			FieldClassTopics:    true,
			FieldTutoringTopics: true,
			FieldVocabulary:     true,
			FieldAchievements:   true,
			FieldChallenges:     true,
		}
	case shared.RoleTeacher:
		return map[Field]bool{
			FieldClassTopics:  true,
			FieldVocabulary:   true,
			FieldAchievements: true,
			FieldChallenges:   true,
		}
	case shared.RoleTutor:
		return map[Field]bool{
			FieldTutoringTopics: true,
			FieldVocabulary:     true,
			FieldAchievements:   true,
			FieldChallenges:     true,
		}
	default:
		return map[Field]bool{}
	}
}

// Content holds the five writable fields of a note. Pointer fields
// distinguish "leave untouched" (nil) from "overwrite with this value".
type Content struct {
	ClassTopics    *string
	TutoringTopics *string
	Vocabulary     *string
	Achievements   *string
	Challenges     *string
}

// Fields returns the non-nil fields of the content, keyed by field name.
func (c Content) Fields() map[Field]string {
	out := make(map[Field]string)
	if c.ClassTopics != nil {
		out[FieldClassTopics] = *c.ClassTopics
	}
	if c.TutoringTopics != nil {
		out[FieldTutoringTopics] = *c.TutoringTopics
	}
	if c.Vocabulary != nil {
		out[FieldVocabulary] = *c.Vocabulary
	}
	if c.Achievements != nil {
		out[FieldAchievements] = *c.Achievements
	}
	if c.Challenges != nil {
		out[FieldChallenges] = *c.Challenges
	}
	return out
}

// IsEmpty reports whether no field is set.
func (c Content) IsEmpty() bool {
	return len(c.Fields()) == 0
}

// CheckPermissions verifies that every set field is writable by the role.
// Returns shared.ErrFieldNotAllowed on the first violation.
func (c Content) CheckPermissions(role shared.Role) error {
	allowed := AllowedFields(role)
	for field := range c.Fields() {
		if !allowed[field] {
			return shared.WrapError("note", "CheckPermissions", shared.ErrPermission,
				"field "+string(field)+" is not writable by role "+role.String(), shared.ErrFieldNotAllowed)
		}
	}
	return nil
}

// Note is a daily note attached to one week and one class day.
type Note struct {
	// ID - row identifier (UUID).
	ID string

	// WeekID - the owning ledger entry.
	WeekID string

	// DayType - class day key (tuesday..friday). Unique per (WeekID, DayType).
	DayType shared.DayType

	// Content fields. Empty string means "cleared"; a note with all five
	// blank is considered empty.
	ClassTopics    string
	TutoringTopics string
	Vocabulary     string
	Achievements   string
	Challenges     string

	// CreatedBy - original author. Preserved by the reassignment note copy.
	CreatedBy string

	// CreatedAt / UpdatedAt - record timestamps.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNote creates an empty note for a week/day pair.
func NewNote(id, weekID string, day shared.DayType, createdBy string) (*Note, error) {
	if id == "" || strings.TrimSpace(weekID) == "" {
		return nil, shared.NewDomainError("note", "New", shared.ErrInvalidID, "note and week ids are required")
	}
	if !day.IsValid() {
		return nil, shared.ErrInvalidDayType
	}

	now := time.Now().UTC()
	return &Note{
		ID:        id,
		WeekID:    weekID,
		DayType:   day,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply overwrites the note's fields with the set values of the content.
// Permission checking is the caller's job (CheckPermissions); Apply itself
// is mechanical so that replays of the same upsert stay idempotent.
func (n *Note) Apply(c Content) {
	if c.ClassTopics != nil {
		n.ClassTopics = *c.ClassTopics
	}
	if c.TutoringTopics != nil {
		n.TutoringTopics = *c.TutoringTopics
	}
	if c.Vocabulary != nil {
		n.Vocabulary = *c.Vocabulary
	}
	if c.Achievements != nil {
		n.Achievements = *c.Achievements
	}
	if c.Challenges != nil {
		n.Challenges = *c.Challenges
	}
	n.UpdatedAt = time.Now().UTC()
}

// IsEmpty reports whether all five content fields are blank.
func (n *Note) IsEmpty() bool {
	return strings.TrimSpace(n.ClassTopics) == "" &&
		strings.TrimSpace(n.TutoringTopics) == "" &&
		strings.TrimSpace(n.Vocabulary) == "" &&
		strings.TrimSpace(n.Achievements) == "" &&
		strings.TrimSpace(n.Challenges) == ""
}

// CopyTo builds a new note carrying this note's content and original author
// into another week. Used by the reassignment coordinator's best-effort
// carry-over step.
func (n *Note) CopyTo(newID, targetWeekID string) *Note {
	now := time.Now().UTC()
	return &Note{
		ID:             newID,
		WeekID:         targetWeekID,
		DayType:        n.DayType,
		ClassTopics:    n.ClassTopics,
		TutoringTopics: n.TutoringTopics,
		Vocabulary:     n.Vocabulary,
		Achievements:   n.Achievements,
		Challenges:     n.Challenges,
		CreatedBy:      n.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
