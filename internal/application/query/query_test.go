package query

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/application/apptest"
	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/topic"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

const testStudent = "22222222-2222-2222-2222-222222222222"

func mustWeek(t *testing.T, studentID string, number int, theme string) *week.Week {
	t.Helper()
	w, err := week.NewWeek(week.NewWeekParams{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		WeekNumber: number,
		Theme:      theme,
	})
	require.NoError(t, err)
	return w
}

func TestGetCurrentWeekSkipsCompletedAndSpecials(t *testing.T) {
	repo := apptest.NewMemWeekRepo()

	w1 := mustWeek(t, testStudent, 1, "Level A1 - Week 1")
	w1.Complete("teacher-1")
	w2 := mustWeek(t, testStudent, 2, "Level A1 - Week 2")
	// An open special must never win the current-week race.
	special := mustWeek(t, testStudent, week.Encode(1, 1), "Week 1-1+")
	repo.Seed(w1, w2, special)

	h := NewGetCurrentWeekHandler(repo, nil)
	current, err := h.Handle(context.Background(), GetCurrentWeekQuery{StudentID: testStudent})
	require.NoError(t, err)
	assert.Equal(t, 2, current.WeekNumber)
}

func TestGetCurrentWeekNoneOpen(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	w := mustWeek(t, testStudent, 12, "Level C2 - Week 12")
	w.Complete("admin-1")
	repo.Seed(w)

	h := NewGetCurrentWeekHandler(repo, nil)
	_, err := h.Handle(context.Background(), GetCurrentWeekQuery{StudentID: testStudent})
	assert.True(t, shared.IsNotFound(err))
}

func TestListWeeksOrdersAndLabels(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	repo.Seed(
		mustWeek(t, testStudent, week.Encode(2, 1), "Week 2-1+"),
		mustWeek(t, testStudent, 3, "Level A2 - Week 3"),
		mustWeek(t, testStudent, 2, "Level A1 - Week 2"),
	)

	h := NewListWeeksHandler(repo)
	views, err := h.Handle(context.Background(), ListWeeksQuery{StudentID: testStudent})
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, []int{2, 3, 201}, []int{views[0].WeekNumber, views[1].WeekNumber, views[2].WeekNumber})
	assert.Equal(t, "Week 2", views[0].Label)
	assert.Equal(t, "Week 2-1+", views[2].Label)
	assert.True(t, views[2].IsSpecialWeek)
}

func TestListWeeksPaginates(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	for n := 1; n <= 5; n++ {
		repo.Seed(mustWeek(t, testStudent, n, "theme"))
	}

	h := NewListWeeksHandler(repo)
	ctx := context.Background()

	page2, err := h.Handle(ctx, ListWeeksQuery{StudentID: testStudent, Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, 3, page2[0].WeekNumber)
	assert.Equal(t, 4, page2[1].WeekNumber)

	// Past the last page comes back empty, not an error.
	beyond, err := h.Handle(ctx, ListWeeksQuery{StudentID: testStudent, Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	// Zero values fall back to the defaults and return the full ledger.
	all, err := h.Handle(ctx, ListWeeksQuery{StudentID: testStudent})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestListNotesVisibleToStaffOnOpenFutureWeek(t *testing.T) {
	weeks := apptest.NewMemWeekRepo()
	notes := apptest.NewMemNoteRepo()

	current := mustWeek(t, testStudent, 4, "Level A2 - Week 4")
	future := mustWeek(t, testStudent, 5, "Level B1 - Week 5")
	weeks.Seed(current, future)
	seedNote(t, notes, future.ID, shared.DayTuesday)

	h := NewListNotesForWeekHandler(weeks, notes)
	ctx := context.Background()

	// Staff see prepared notes on a week the student has not reached.
	got, err := h.Handle(ctx, ListNotesForWeekQuery{WeekID: future.ID, Role: shared.RoleTeacher})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// The student does not.
	_, err = h.Handle(ctx, ListNotesForWeekQuery{WeekID: future.ID, Role: shared.RoleStudent})
	assert.True(t, shared.IsPermission(err))
}

func TestListNotesStudentSeesCurrentAndCompleted(t *testing.T) {
	weeks := apptest.NewMemWeekRepo()
	notes := apptest.NewMemNoteRepo()

	done := mustWeek(t, testStudent, 3, "Level A2 - Week 3")
	done.Complete("teacher-1")
	current := mustWeek(t, testStudent, 4, "Level A2 - Week 4")
	weeks.Seed(done, current)
	seedNote(t, notes, done.ID, shared.DayWednesday)
	seedNote(t, notes, current.ID, shared.DayTuesday)

	h := NewListNotesForWeekHandler(weeks, notes)
	ctx := context.Background()

	got, err := h.Handle(ctx, ListNotesForWeekQuery{WeekID: done.ID, Role: shared.RoleStudent})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = h.Handle(ctx, ListNotesForWeekQuery{WeekID: current.ID, Role: shared.RoleStudent})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListNotesFixedDayOrder(t *testing.T) {
	weeks := apptest.NewMemWeekRepo()
	notes := apptest.NewMemNoteRepo()

	w := mustWeek(t, testStudent, 3, "Level A2 - Week 3")
	w.Complete("teacher-1")
	weeks.Seed(w)

	// Seeded out of order on purpose.
	seedNote(t, notes, w.ID, shared.DayFriday)
	seedNote(t, notes, w.ID, shared.DayTuesday)
	seedNote(t, notes, w.ID, shared.DayThursday)

	h := NewListNotesForWeekHandler(weeks, notes)
	got, err := h.Handle(context.Background(), ListNotesForWeekQuery{WeekID: w.ID, Role: shared.RoleStudent})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, shared.DayTuesday, got[0].DayType)
	assert.Equal(t, shared.DayThursday, got[1].DayType)
	assert.Equal(t, shared.DayFriday, got[2].DayType)
}

func TestGetNoteVisibilityMatchesListing(t *testing.T) {
	weeks := apptest.NewMemWeekRepo()
	notes := apptest.NewMemNoteRepo()

	current := mustWeek(t, testStudent, 4, "Level A2 - Week 4")
	future := mustWeek(t, testStudent, 5, "Level B1 - Week 5")
	weeks.Seed(current, future)
	seedNote(t, notes, future.ID, shared.DayTuesday)

	h := NewGetNoteHandler(weeks, notes)
	ctx := context.Background()

	_, err := h.Handle(ctx, GetNoteQuery{WeekID: future.ID, Day: shared.DayTuesday, Role: shared.RoleStudent})
	assert.True(t, shared.IsPermission(err))

	got, err := h.Handle(ctx, GetNoteQuery{WeekID: future.ID, Day: shared.DayTuesday, Role: shared.RoleTutor})
	require.NoError(t, err)
	assert.Equal(t, shared.DayTuesday, got.DayType)
}

func TestUncalibratedTopics(t *testing.T) {
	catalog := apptest.StaticCatalog{Topics: []topic.CatalogTopic{
		{ID: "t1", WeekNumber: 3, Title: "Past simple"},
		{ID: "t2", WeekNumber: 3, Title: "Irregular verbs"},
		{ID: "t3", WeekNumber: 4, Title: "Articles"},
	}}
	progress := apptest.NewMemProgressRepo(
		topic.Progress{StudentID: testStudent, TopicID: "t1", Color: "green"},
		// An empty color counts as uncalibrated.
		topic.Progress{StudentID: testStudent, TopicID: "t2", Color: ""},
	)

	h := NewUncalibratedTopicsHandler(catalog, progress)
	missing, err := h.Handle(context.Background(), UncalibratedTopicsQuery{StudentID: testStudent, WeekNumber: 3})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "t2", missing[0].ID)
}

func TestUncalibratedTopicsForSpecialChecksBaseSlot(t *testing.T) {
	catalog := apptest.StaticCatalog{Topics: []topic.CatalogTopic{
		{ID: "t1", WeekNumber: 2, Title: "To be"},
	}}
	progress := apptest.NewMemProgressRepo()

	h := NewUncalibratedTopicsHandler(catalog, progress)
	missing, err := h.Handle(context.Background(), UncalibratedTopicsQuery{StudentID: testStudent, WeekNumber: week.Encode(2, 1)})
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "t1", missing[0].ID)
}

func seedNote(t *testing.T, repo *apptest.MemNoteRepo, weekID string, day shared.DayType) *note.Note {
	t.Helper()
	n, err := note.NewNote(uuid.NewString(), weekID, day, "teacher-1")
	require.NoError(t, err)
	n.ClassTopics = "seed"
	repo.Seed(n)
	return n
}
