// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven side effects.
// Each event represents something significant that happened in the progression ledger.
const (
	// Progression events
	EventWeekCompleted      EventType = "progression.week_completed"
	EventWeekReopened       EventType = "progression.week_reopened"
	EventSpecialWeekCreated EventType = "progression.special_week_created"
	EventSpecialWeekDeleted EventType = "progression.special_week_deleted"
	EventStudentReassigned  EventType = "progression.student_reassigned"

	// Profile events
	EventAlumniMarked EventType = "profile.alumni_marked"

	// Note events
	EventNoteSaved EventType = "note.saved"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// WeekCompletedEvent is emitted when a week is marked completed.
// The badge evaluator consumes this event asynchronously; its failure
// never rolls back the completion.
type WeekCompletedEvent struct {
	BaseEvent
	StudentID   string `json:"student_id"`
	WeekID      string `json:"week_id"`
	WeekNumber  int    `json:"week_number"`
	CompletedBy string `json:"completed_by"`
}

// Payload implements Event interface.
func (e WeekCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":   e.StudentID,
		"week_id":      e.WeekID,
		"week_number":  e.WeekNumber,
		"completed_by": e.CompletedBy,
	}
}

// NewWeekCompletedEvent creates a new WeekCompletedEvent.
func NewWeekCompletedEvent(studentID, weekID string, weekNumber int, completedBy string) WeekCompletedEvent {
	return WeekCompletedEvent{
		BaseEvent:   NewBaseEvent(EventWeekCompleted, studentID),
		StudentID:   studentID,
		WeekID:      weekID,
		WeekNumber:  weekNumber,
		CompletedBy: completedBy,
	}
}

// WeekReopenedEvent is emitted when a completed week is reopened,
// either directly or by the reopen cascade after a special-week deletion.
type WeekReopenedEvent struct {
	BaseEvent
	StudentID  string `json:"student_id"`
	WeekID     string `json:"week_id"`
	WeekNumber int    `json:"week_number"`
	Cascade    bool   `json:"cascade"`
}

// Payload implements Event interface.
func (e WeekReopenedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.StudentID,
		"week_id":     e.WeekID,
		"week_number": e.WeekNumber,
		"cascade":     e.Cascade,
	}
}

// NewWeekReopenedEvent creates a new WeekReopenedEvent.
func NewWeekReopenedEvent(studentID, weekID string, weekNumber int, cascade bool) WeekReopenedEvent {
	return WeekReopenedEvent{
		BaseEvent:  NewBaseEvent(EventWeekReopened, studentID),
		StudentID:  studentID,
		WeekID:     weekID,
		WeekNumber: weekNumber,
		Cascade:    cascade,
	}
}

// SpecialWeekCreatedEvent is emitted when a reinforcement week is created.
type SpecialWeekCreatedEvent struct {
	BaseEvent
	StudentID  string `json:"student_id"`
	WeekID     string `json:"week_id"`
	WeekNumber int    `json:"week_number"`
	Base       int    `json:"base"`
	Ordinal    int    `json:"ordinal"`
}

// Payload implements Event interface.
func (e SpecialWeekCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":  e.StudentID,
		"week_id":     e.WeekID,
		"week_number": e.WeekNumber,
		"base":        e.Base,
		"ordinal":     e.Ordinal,
	}
}

// NewSpecialWeekCreatedEvent creates a new SpecialWeekCreatedEvent.
func NewSpecialWeekCreatedEvent(studentID, weekID string, weekNumber, base, ordinal int) SpecialWeekCreatedEvent {
	return SpecialWeekCreatedEvent{
		BaseEvent:  NewBaseEvent(EventSpecialWeekCreated, studentID),
		StudentID:  studentID,
		WeekID:     weekID,
		WeekNumber: weekNumber,
		Base:       base,
		Ordinal:    ordinal,
	}
}

// SpecialWeekDeletedEvent is emitted when a reinforcement week is removed.
type SpecialWeekDeletedEvent struct {
	BaseEvent
	StudentID    string `json:"student_id"`
	WeekNumber   int    `json:"week_number"`
	Base         int    `json:"base"`
	BaseReopened bool   `json:"base_reopened"`
}

// Payload implements Event interface.
func (e SpecialWeekDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":    e.StudentID,
		"week_number":   e.WeekNumber,
		"base":          e.Base,
		"base_reopened": e.BaseReopened,
	}
}

// NewSpecialWeekDeletedEvent creates a new SpecialWeekDeletedEvent.
func NewSpecialWeekDeletedEvent(studentID string, weekNumber, base int, baseReopened bool) SpecialWeekDeletedEvent {
	return SpecialWeekDeletedEvent{
		BaseEvent:    NewBaseEvent(EventSpecialWeekDeleted, studentID),
		StudentID:    studentID,
		WeekNumber:   weekNumber,
		Base:         base,
		BaseReopened: baseReopened,
	}
}

// StudentReassignedEvent is emitted after a level/week reassignment completes.
type StudentReassignedEvent struct {
	BaseEvent
	StudentID       string `json:"student_id"`
	NewLevel        string `json:"new_level"`
	NewWeekNumber   int    `json:"new_week_number"`
	ProgressDeleted bool   `json:"progress_deleted"`
	NotesCopied     int    `json:"notes_copied"`
}

// Payload implements Event interface.
func (e StudentReassignedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":       e.StudentID,
		"new_level":        e.NewLevel,
		"new_week_number":  e.NewWeekNumber,
		"progress_deleted": e.ProgressDeleted,
		"notes_copied":     e.NotesCopied,
	}
}

// NewStudentReassignedEvent creates a new StudentReassignedEvent.
func NewStudentReassignedEvent(studentID, newLevel string, newWeekNumber int, progressDeleted bool, notesCopied int) StudentReassignedEvent {
	return StudentReassignedEvent{
		BaseEvent:       NewBaseEvent(EventStudentReassigned, studentID),
		StudentID:       studentID,
		NewLevel:        newLevel,
		NewWeekNumber:   newWeekNumber,
		ProgressDeleted: progressDeleted,
		NotesCopied:     notesCopied,
	}
}

// AlumniMarkedEvent is emitted when a student is moved to alumni status.
type AlumniMarkedEvent struct {
	BaseEvent
	StudentID string    `json:"student_id"`
	Since     time.Time `json:"since"`
}

// Payload implements Event interface.
func (e AlumniMarkedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"since":      e.Since.Format(time.RFC3339),
	}
}

// NewAlumniMarkedEvent creates a new AlumniMarkedEvent.
func NewAlumniMarkedEvent(studentID string, since time.Time) AlumniMarkedEvent {
	return AlumniMarkedEvent{
		BaseEvent: NewBaseEvent(EventAlumniMarked, studentID),
		StudentID: studentID,
		Since:     since,
	}
}

// NoteSavedEvent is emitted when a daily note is created or updated.
type NoteSavedEvent struct {
	BaseEvent
	WeekID  string `json:"week_id"`
	DayType string `json:"day_type"`
	SavedBy string `json:"saved_by"`
	Role    string `json:"role"`
}

// Payload implements Event interface.
func (e NoteSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_id":  e.WeekID,
		"day_type": e.DayType,
		"saved_by": e.SavedBy,
		"role":     e.Role,
	}
}

// NewNoteSavedEvent creates a new NoteSavedEvent.
func NewNoteSavedEvent(weekID, dayType, savedBy, role string) NoteSavedEvent {
	return NoteSavedEvent{
		BaseEvent: NewBaseEvent(EventNoteSaved, weekID),
		WeekID:    weekID,
		DayType:   dayType,
		SavedBy:   savedBy,
		Role:      role,
	}
}

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
