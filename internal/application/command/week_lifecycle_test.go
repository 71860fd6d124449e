package command

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/application/apptest"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/week"
)

const testStudent = "11111111-1111-1111-1111-111111111111"

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

func TestUpsertWeekCreatesThenUpdates(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	h := NewUpsertWeekHandler(repo)
	ctx := context.Background()

	created, err := h.Handle(ctx, UpsertWeekCommand{
		StudentID:  testStudent,
		WeekNumber: 3,
		Theme:      "Level A2 - Week 3",
		Objectives: "past tense",
	})
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Equal(t, 3, created.Week.WeekNumber)

	updated, err := h.Handle(ctx, UpsertWeekCommand{
		StudentID:  testStudent,
		WeekNumber: 3,
		Theme:      "Level A2 - Week 3",
		Objectives: "past tense, irregular verbs",
	})
	require.NoError(t, err)
	assert.False(t, updated.Created)
	assert.Equal(t, created.Week.ID, updated.Week.ID)
	assert.Equal(t, "past tense, irregular verbs", updated.Week.Objectives)
	assert.Equal(t, 1, repo.Len())
}

func TestUpsertWeekRejectsInvalidNumber(t *testing.T) {
	h := NewUpsertWeekHandler(apptest.NewMemWeekRepo())

	_, err := h.Handle(context.Background(), UpsertWeekCommand{StudentID: testStudent, WeekNumber: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidWeekNumber)
}

func TestRenameWeek(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	w := mustWeek(t, testStudent, 5, "Level B1 - Week 5")
	repo.Seed(w)

	h := NewRenameWeekHandler(repo)
	renamed, err := h.Handle(context.Background(), RenameWeekCommand{WeekID: w.ID, Theme: "Conditionals"})
	require.NoError(t, err)
	assert.Equal(t, "Conditionals", renamed.Theme)

	stored, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Conditionals", stored.Theme)
}

func TestCompleteWeekCascadesToNext(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	pub := apptest.NewCapturePublisher()
	w := mustWeek(t, testStudent, 3, "Level A2 - Week 3")
	repo.Seed(w)

	h := NewCompleteWeekHandler(repo, pub)
	res, err := h.Handle(context.Background(), CompleteWeekCommand{WeekID: w.ID, Actor: "teacher-1"})
	require.NoError(t, err)

	assert.True(t, res.Week.IsCompleted)
	assert.Equal(t, "teacher-1", res.Week.CompletedBy)
	require.NotNil(t, res.NextWeek)
	assert.Equal(t, 4, res.NextWeek.WeekNumber)
	assert.Equal(t, "Level A2 - Week 4", res.NextWeek.Theme)
	assert.False(t, res.NextWeek.IsCompleted)

	events := pub.EventsOf(shared.EventWeekCompleted)
	require.Len(t, events, 1)
}

func TestCompleteWeekTwiceCreatesNextOnce(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	pub := apptest.NewCapturePublisher()
	w := mustWeek(t, testStudent, 3, "Level A2 - Week 3")
	repo.Seed(w)

	h := NewCompleteWeekHandler(repo, pub)
	ctx := context.Background()

	first, err := h.Handle(ctx, CompleteWeekCommand{WeekID: w.ID, Actor: "teacher-1"})
	require.NoError(t, err)
	require.NotNil(t, first.NextWeek)

	second, err := h.Handle(ctx, CompleteWeekCommand{WeekID: w.ID, Actor: "teacher-2"})
	require.NoError(t, err)
	assert.Nil(t, second.NextWeek)
	assert.Equal(t, "teacher-2", second.Week.CompletedBy)

	// Weeks 3 and 4 only - the replay must not mint another week 4.
	assert.Equal(t, 2, repo.Len())
}

func TestCompleteFinalWeekDoesNotCascade(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	pub := apptest.NewCapturePublisher()
	w := mustWeek(t, testStudent, 12, "Level C2 - Week 12")
	repo.Seed(w)

	h := NewCompleteWeekHandler(repo, pub)
	res, err := h.Handle(context.Background(), CompleteWeekCommand{WeekID: w.ID, Actor: "admin-1"})
	require.NoError(t, err)

	assert.Nil(t, res.NextWeek)
	assert.Equal(t, 1, repo.Len())
}

func TestCompleteSpecialWeekDoesNotCascade(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	pub := apptest.NewCapturePublisher()
	special := mustWeek(t, testStudent, week.Encode(2, 1), "Week 2-1+")
	repo.Seed(special)

	h := NewCompleteWeekHandler(repo, pub)
	res, err := h.Handle(context.Background(), CompleteWeekCommand{WeekID: special.ID, Actor: "teacher-1"})
	require.NoError(t, err)

	assert.True(t, res.Week.IsCompleted)
	assert.Nil(t, res.NextWeek)
	// No week 202 and no phantom week at 201+1.
	assert.Equal(t, 1, repo.Len())
}

func TestCompleteWeekSkipsCascadeWhenNextExists(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	pub := apptest.NewCapturePublisher()
	w := mustWeek(t, testStudent, 7, "Level B2 - Week 7")
	next := mustWeek(t, testStudent, 8, "Level B2 - Week 8")
	repo.Seed(w, next)

	h := NewCompleteWeekHandler(repo, pub)
	res, err := h.Handle(context.Background(), CompleteWeekCommand{WeekID: w.ID, Actor: "teacher-1"})
	require.NoError(t, err)

	assert.Nil(t, res.NextWeek)
	assert.Equal(t, 2, repo.Len())
}

func TestReopenWeekKeepsNextInPlace(t *testing.T) {
	repo := apptest.NewMemWeekRepo()
	pub := apptest.NewCapturePublisher()
	w := mustWeek(t, testStudent, 3, "Level A2 - Week 3")
	repo.Seed(w)

	complete := NewCompleteWeekHandler(repo, pub)
	ctx := context.Background()
	res, err := complete.Handle(ctx, CompleteWeekCommand{WeekID: w.ID, Actor: "teacher-1"})
	require.NoError(t, err)
	require.NotNil(t, res.NextWeek)

	reopen := NewReopenWeekHandler(repo, pub)
	reopened, err := reopen.Handle(ctx, ReopenWeekCommand{WeekID: w.ID})
	require.NoError(t, err)

	assert.False(t, reopened.IsCompleted)
	assert.Empty(t, reopened.CompletedBy)
	assert.Nil(t, reopened.CompletedAt)

	// Reopening never deletes the week the cascade created.
	_, err = repo.GetByID(ctx, res.NextWeek.ID)
	assert.NoError(t, err)

	events := pub.EventsOf(shared.EventWeekReopened)
	require.Len(t, events, 1)
}
