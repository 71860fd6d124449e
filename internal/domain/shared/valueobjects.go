// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// StudentID represents a unique student identifier (UUID format).
type StudentID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the student ID is a valid UUID.
func (s StudentID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewStudentID", ErrInvalidID, "invalid student ID format")
	}
	return sid, nil
}

// Level represents a CEFR proficiency level (A1 through C2).
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"

	// LevelUnset marks a profile whose level has not been assigned yet.
	LevelUnset Level = ""
)

// IsValid checks that the level is a known CEFR level.
func (l Level) IsValid() bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	default:
		return false
	}
}

// IsSet returns true if a level has been assigned.
func (l Level) IsSet() bool {
	return l != LevelUnset
}

// String returns the string representation.
func (l Level) String() string {
	return string(l)
}

// NewLevel creates a Level with validation.
func NewLevel(value string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(value)))
	if !l.IsValid() {
		return LevelUnset, ErrInvalidLevel
	}
	return l, nil
}

// levelWeekRanges maps each level to its [first, last] regular week slot.
// Two curriculum weeks per level, twelve regular weeks total.
var levelWeekRanges = []struct {
	level Level
	first int
	last  int
}{
	{LevelA1, 1, 2},
	{LevelA2, 3, 4},
	{LevelB1, 5, 6},
	{LevelB2, 7, 8},
	{LevelC1, 9, 10},
	{LevelC2, 11, 12},
}

// LevelForWeek returns the level whose week range contains the given regular
// week number. Defaults to A1 when no range matches.
func LevelForWeek(weekNumber int) Level {
	for _, r := range levelWeekRanges {
		if weekNumber >= r.first && weekNumber <= r.last {
			return r.level
		}
	}
	return LevelA1
}

// WeekRange returns the [first, last] regular week slots for a level.
func (l Level) WeekRange() (first, last int) {
	for _, r := range levelWeekRanges {
		if r.level == l {
			return r.first, r.last
		}
	}
	return 1, 2
}

// Role identifies the caller's role for permission gating. Roles are resolved
// by the external auth collaborator and threaded in as explicit parameters -
// this core never consults session state.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// IsValid checks that the role is known.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleTutor, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff returns true for teacher, tutor, and admin roles.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleTutor || r == RoleAdmin
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// NewRole creates a Role with validation.
func NewRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.IsValid() {
		return "", NewDomainError("shared", "NewRole", ErrInvalidInput, "unknown role")
	}
	return role, nil
}

// DayType identifies a class day within a week. Classes run Tuesday
// through Friday only; the other days carry no notes.
type DayType string

const (
	DayTuesday   DayType = "tuesday"
	DayWednesday DayType = "wednesday"
	DayThursday  DayType = "thursday"
	DayFriday    DayType = "friday"
)

// ClassDays lists the class days in their fixed display order (Tue -> Fri).
// The PDF export read path depends on this ordering.
var ClassDays = []DayType{DayTuesday, DayWednesday, DayThursday, DayFriday}

// IsValid checks that the day is a class day.
func (d DayType) IsValid() bool {
	switch d {
	case DayTuesday, DayWednesday, DayThursday, DayFriday:
		return true
	default:
		return false
	}
}

// Order returns the day's position in the Tue->Fri sequence, starting at 0.
// Unknown days sort last.
func (d DayType) Order() int {
	for i, day := range ClassDays {
		if day == d {
			return i
		}
	}
	return len(ClassDays)
}

// String returns the string representation.
func (d DayType) String() string {
	return string(d)
}

// NewDayType creates a DayType with validation.
func NewDayType(value string) (DayType, error) {
	d := DayType(strings.ToLower(strings.TrimSpace(value)))
	if !d.IsValid() {
		return "", ErrInvalidDayType
	}
	return d, nil
}

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}
