// Package student contains the student profile model for the progression core.
// Only the fields this core mutates live here; identity, contact data, and
// role resolution belong to the external auth collaborator.
package student

import (
	"errors"
	"strings"
	"time"

	"github.com/linguahub/progression-hub/internal/domain/shared"
)

// Profile is the progression-facing view of a student.
type Profile struct {
	// UserID - the student's identifier (PK shared with the auth system).
	UserID string

	// Level - current CEFR level, may be unset for new students.
	Level shared.Level

	// IsAlumni - true once the student has left active tuition.
	IsAlumni bool

	// AlumniSince - when the alumni flag was set (zero while active).
	AlumniSince time.Time

	// TeacherID - assigned teacher, empty when unassigned or alumni.
	TeacherID string

	// TutorID - assigned tutor, empty when unassigned or alumni.
	TutorID string

	// CreatedAt - record creation time.
	CreatedAt time.Time

	// UpdatedAt - last mutation time.
	UpdatedAt time.Time
}

var (
	// ErrMissingUserID - a profile needs an owner.
	ErrMissingUserID = errors.New("student profile: user id is required")
)

// NewProfile creates a profile for a newly enrolled student.
func NewProfile(userID string, level shared.Level) (*Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUserID
	}
	if level.IsSet() && !level.IsValid() {
		return nil, shared.ErrInvalidLevel
	}

	now := time.Now().UTC()
	return &Profile{
		UserID:    userID,
		Level:     level,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ChangeLevel updates the student's level. Used by the reassignment
// coordinator; the level update must land before any progress wipe.
func (p *Profile) ChangeLevel(level shared.Level) error {
	if !level.IsValid() {
		return shared.ErrInvalidLevel
	}
	p.Level = level
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAlumni transitions the student to alumni status. One-directional:
// there is no unmark operation. Staff references are cleared so that the
// invariant "alumni have no teacher/tutor" holds at the entity level too,
// not just in storage.
func (p *Profile) MarkAlumni() {
	now := time.Now().UTC()
	p.IsAlumni = true
	p.AlumniSince = now
	p.TeacherID = ""
	p.TutorID = ""
	p.UpdatedAt = now
}

// AssignStaff sets the teacher and/or tutor references. Empty strings leave
// the existing assignment untouched.
func (p *Profile) AssignStaff(teacherID, tutorID string) error {
	if p.IsAlumni {
		return shared.NewDomainError("profile", "AssignStaff", shared.ErrInvalidState,
			"alumni cannot hold staff assignments")
	}
	if teacherID != "" {
		p.TeacherID = teacherID
	}
	if tutorID != "" {
		p.TutorID = tutorID
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}
