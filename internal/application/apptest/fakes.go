// Package apptest provides in-memory repository and event bus fakes for
// application-layer tests. The fakes enforce the same uniqueness rules the
// real storage layer does, so conflict-handling paths are exercisable
// without a database.
package apptest

import (
	"context"
	"sort"
	"sync"

	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
	"github.com/linguahub/progression-hub/internal/domain/topic"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

// MemWeekRepo is an in-memory week.Repository with the (student, week_number)
// uniqueness rule. CreateErrs, when non-empty, is drained one error per
// Create call before normal processing; use it to simulate storage races.
type MemWeekRepo struct {
	mu         sync.Mutex
	weeks      map[string]*week.Week
	CreateErrs []error
}

// NewMemWeekRepo creates an empty week repository.
func NewMemWeekRepo() *MemWeekRepo {
	return &MemWeekRepo{weeks: make(map[string]*week.Week)}
}

// Seed inserts weeks without uniqueness checks. Test setup only.
func (r *MemWeekRepo) Seed(ws ...*week.Week) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range ws {
		cp := *w
		r.weeks[w.ID] = &cp
	}
}

func (r *MemWeekRepo) GetByID(_ context.Context, id string) (*week.Week, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.weeks[id]
	if !ok {
		return nil, shared.ErrWeekNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *MemWeekRepo) GetByNumber(_ context.Context, studentID string, weekNumber int) (*week.Week, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.weeks {
		if w.StudentID == studentID && w.WeekNumber == weekNumber {
			cp := *w
			return &cp, nil
		}
	}
	return nil, shared.ErrWeekNotFound
}

func (r *MemWeekRepo) ListByStudent(_ context.Context, studentID string) ([]*week.Week, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*week.Week
	for _, w := range r.weeks {
		if w.StudentID == studentID {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

func (r *MemWeekRepo) FirstIncompleteRegular(_ context.Context, studentID string) (*week.Week, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *week.Week
	for _, w := range r.weeks {
		if w.StudentID != studentID || w.IsSpecial() || w.IsCompleted {
			continue
		}
		if best == nil || w.WeekNumber < best.WeekNumber {
			best = w
		}
	}
	if best == nil {
		return nil, shared.ErrWeekNotFound
	}
	cp := *best
	return &cp, nil
}

func (r *MemWeekRepo) CountSpecials(_ context.Context, studentID string, base int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	low, high := week.SpecialRange(base)
	count := 0
	for _, w := range r.weeks {
		if w.StudentID == studentID && w.WeekNumber >= low && w.WeekNumber < high {
			count++
		}
	}
	return count, nil
}

func (r *MemWeekRepo) Create(_ context.Context, w *week.Week) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.CreateErrs) > 0 {
		err := r.CreateErrs[0]
		r.CreateErrs = r.CreateErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range r.weeks {
		if existing.StudentID == w.StudentID && existing.WeekNumber == w.WeekNumber {
			return shared.ErrWeekNumberTaken
		}
	}
	cp := *w
	r.weeks[w.ID] = &cp
	return nil
}

func (r *MemWeekRepo) Update(_ context.Context, w *week.Week) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.weeks[w.ID]; !ok {
		return shared.ErrWeekNotFound
	}
	cp := *w
	r.weeks[w.ID] = &cp
	return nil
}

func (r *MemWeekRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.weeks[id]; !ok {
		return shared.ErrWeekNotFound
	}
	delete(r.weeks, id)
	return nil
}

func (r *MemWeekRepo) DeleteByStudent(_ context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.weeks {
		if w.StudentID == studentID {
			delete(r.weeks, id)
		}
	}
	return nil
}

// Len returns the number of stored weeks.
func (r *MemWeekRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.weeks)
}

// MemNoteRepo is an in-memory note.Repository keyed by (week_id, day_type).
type MemNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*note.Note

	// WeekStudent maps week IDs to student IDs so DeleteByStudent can
	// resolve ownership the way a SQL join would.
	WeekStudent map[string]string

	// UpsertErrs is drained one error per Upsert call; use it to simulate
	// partial failures during the reassignment note copy.
	UpsertErrs []error
}

// NewMemNoteRepo creates an empty note repository.
func NewMemNoteRepo() *MemNoteRepo {
	return &MemNoteRepo{
		notes:       make(map[string]*note.Note),
		WeekStudent: make(map[string]string),
	}
}

func noteKey(weekID string, day shared.DayType) string {
	return weekID + "/" + day.String()
}

// Seed inserts notes directly. Test setup only.
func (r *MemNoteRepo) Seed(ns ...*note.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range ns {
		cp := *n
		r.notes[noteKey(n.WeekID, n.DayType)] = &cp
	}
}

func (r *MemNoteRepo) Get(_ context.Context, weekID string, day shared.DayType) (*note.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[noteKey(weekID, day)]
	if !ok {
		return nil, shared.ErrNoteNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *MemNoteRepo) ListByWeek(_ context.Context, weekID string) ([]*note.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*note.Note
	for _, day := range shared.ClassDays {
		if n, ok := r.notes[noteKey(weekID, day)]; ok {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MemNoteRepo) Upsert(_ context.Context, n *note.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.UpsertErrs) > 0 {
		err := r.UpsertErrs[0]
		r.UpsertErrs = r.UpsertErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *n
	r.notes[noteKey(n.WeekID, n.DayType)] = &cp
	return nil
}

func (r *MemNoteRepo) DeleteByWeek(_ context.Context, weekID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, n := range r.notes {
		if n.WeekID == weekID {
			delete(r.notes, key)
		}
	}
	return nil
}

func (r *MemNoteRepo) DeleteByStudent(_ context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, n := range r.notes {
		if r.WeekStudent[n.WeekID] == studentID {
			delete(r.notes, key)
		}
	}
	return nil
}

// Len returns the number of stored notes.
func (r *MemNoteRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

// MemProfileRepo is an in-memory student.Repository.
type MemProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*student.Profile
}

// NewMemProfileRepo creates an empty profile repository.
func NewMemProfileRepo() *MemProfileRepo {
	return &MemProfileRepo{profiles: make(map[string]*student.Profile)}
}

// Seed inserts profiles directly. Test setup only.
func (r *MemProfileRepo) Seed(ps ...*student.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		cp := *p
		r.profiles[p.UserID] = &cp
	}
}

func (r *MemProfileRepo) GetByUserID(_ context.Context, userID string) (*student.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemProfileRepo) Create(_ context.Context, p *student.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; ok {
		return shared.ErrConflict
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *MemProfileRepo) Update(_ context.Context, p *student.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; !ok {
		return shared.ErrProfileNotFound
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *MemProfileRepo) SetLevel(_ context.Context, userID string, level string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return shared.ErrProfileNotFound
	}
	p.Level = shared.Level(level)
	return nil
}

// MemProgressRepo is an in-memory topic.ProgressRepository.
type MemProgressRepo struct {
	mu   sync.Mutex
	rows []topic.Progress

	// DeleteErr, when set, is returned by DeleteByStudent.
	DeleteErr error
}

// NewMemProgressRepo creates an empty calibration repository.
func NewMemProgressRepo(rows ...topic.Progress) *MemProgressRepo {
	return &MemProgressRepo{rows: rows}
}

func (r *MemProgressRepo) ListByStudent(_ context.Context, studentID string) ([]topic.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []topic.Progress
	for _, p := range r.rows {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemProgressRepo) DeleteByStudent(_ context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	kept := r.rows[:0]
	for _, p := range r.rows {
		if p.StudentID != studentID {
			kept = append(kept, p)
		}
	}
	r.rows = kept
	return nil
}

// Len returns the number of stored calibration rows.
func (r *MemProgressRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// StaticCatalog is a topic.Catalog backed by a fixed slice.
type StaticCatalog struct {
	Topics []topic.CatalogTopic
}

func (c StaticCatalog) TopicsForWeek(_ context.Context, weekNumber int) ([]topic.CatalogTopic, error) {
	var out []topic.CatalogTopic
	for _, t := range c.Topics {
		if t.WeekNumber == weekNumber {
			out = append(out, t)
		}
	}
	return out, nil
}

// CapturePublisher records published events for assertions.
type CapturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

// NewCapturePublisher creates an empty capturing publisher.
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

func (p *CapturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *CapturePublisher) Events() []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.Event, len(p.events))
	copy(out, p.events)
	return out
}

// EventsOf returns published events of one type, in order.
func (p *CapturePublisher) EventsOf(t shared.EventType) []shared.Event {
	var out []shared.Event
	for _, e := range p.Events() {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
