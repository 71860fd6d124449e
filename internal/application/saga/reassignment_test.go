package saga

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/application/apptest"
	"github.com/linguahub/progression-hub/internal/domain/note"
	"github.com/linguahub/progression-hub/internal/domain/shared"
	"github.com/linguahub/progression-hub/internal/domain/student"
	"github.com/linguahub/progression-hub/internal/domain/topic"
	"github.com/linguahub/progression-hub/internal/domain/week"
	"github.com/linguahub/progression-hub/pkg/logger"
)

const testStudent = "33333333-3333-3333-3333-333333333333"

type sagaEnv struct {
	profiles *apptest.MemProfileRepo
	weeks    *apptest.MemWeekRepo
	notes    *apptest.MemNoteRepo
	progress *apptest.MemProgressRepo
	pub      *apptest.CapturePublisher
	saga     *ReassignmentSaga
}

func newSagaEnv(t *testing.T) *sagaEnv {
	t.Helper()
	env := &sagaEnv{
		profiles: apptest.NewMemProfileRepo(),
		weeks:    apptest.NewMemWeekRepo(),
		notes:    apptest.NewMemNoteRepo(),
		progress: apptest.NewMemProgressRepo(),
		pub:      apptest.NewCapturePublisher(),
	}
	quiet := logger.New(logger.Options{Output: io.Discard})
	env.saga = NewReassignmentSaga(env.profiles, env.weeks, env.notes, env.progress, nil, env.pub, quiet)

	p, err := student.NewProfile(testStudent, shared.LevelA1)
	require.NoError(t, err)
	env.profiles.Seed(p)
	return env
}

func (e *sagaEnv) seedWeek(t *testing.T, number int, theme string, completed bool) *week.Week {
	t.Helper()
	w, err := week.NewWeek(week.NewWeekParams{
		ID:         uuid.NewString(),
		StudentID:  testStudent,
		WeekNumber: number,
		Theme:      theme,
	})
	require.NoError(t, err)
	if completed {
		w.Complete("teacher-1")
	}
	e.weeks.Seed(w)
	return w
}

func (e *sagaEnv) seedNote(t *testing.T, weekID string, day shared.DayType, vocab string) {
	t.Helper()
	n, err := note.NewNote(uuid.NewString(), weekID, day, "teacher-1")
	require.NoError(t, err)
	n.Vocabulary = vocab
	e.notes.Seed(n)
	e.notes.WeekStudent[weekID] = testStudent
}

func TestReassignMovesLevelAndCreatesTargetWeek(t *testing.T) {
	env := newSagaEnv(t)
	env.seedWeek(t, 1, "Level A1 - Week 1", true)
	prev := env.seedWeek(t, 2, "Level A1 - Week 2", false)

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelB1,
		NewWeekNumber: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, shared.LevelB1, res.Profile.Level)
	assert.True(t, res.TargetCreated)
	assert.Equal(t, 5, res.TargetWeek.WeekNumber)
	assert.Equal(t, "Level B1 - Week 5", res.TargetWeek.Theme)
	require.NotNil(t, res.PreviousWeek)
	assert.Equal(t, prev.ID, res.PreviousWeek.ID)

	stored, err := env.profiles.GetByUserID(context.Background(), testStudent)
	require.NoError(t, err)
	assert.Equal(t, shared.LevelB1, stored.Level)

	assert.Len(t, env.pub.EventsOf(shared.EventStudentReassigned), 1)
}

func TestReassignReusesExistingTargetWeek(t *testing.T) {
	env := newSagaEnv(t)
	existing := env.seedWeek(t, 5, "Conditionals deep dive", false)

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelB1,
		NewWeekNumber: 5,
	})
	require.NoError(t, err)

	assert.False(t, res.TargetCreated)
	assert.Equal(t, existing.ID, res.TargetWeek.ID)
	// A reused week keeps its hand-written theme.
	assert.Equal(t, "Conditionals deep dive", res.TargetWeek.Theme)
}

func TestReassignWipeDeletesEverything(t *testing.T) {
	env := newSagaEnv(t)
	w1 := env.seedWeek(t, 1, "Level A1 - Week 1", true)
	w2 := env.seedWeek(t, 2, "Level A1 - Week 2", false)
	env.seedNote(t, w1.ID, shared.DayTuesday, "old words")
	env.seedNote(t, w2.ID, shared.DayWednesday, "more words")
	env.progress = apptest.NewMemProgressRepo(
		topic.Progress{StudentID: testStudent, TopicID: "t1", Color: "green"},
	)
	quiet := logger.New(logger.Options{Output: io.Discard})
	env.saga = NewReassignmentSaga(env.profiles, env.weeks, env.notes, env.progress, nil, env.pub, quiet)

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:      testStudent,
		NewLevel:       shared.LevelA2,
		NewWeekNumber:  3,
		DeleteProgress: true,
		CopyNotes:      true,
	})
	require.NoError(t, err)

	assert.True(t, res.ProgressWiped)
	assert.True(t, res.TargetCreated)
	// Only the fresh target week remains.
	assert.Equal(t, 1, env.weeks.Len())
	assert.Equal(t, 0, env.notes.Len())
	assert.Equal(t, 0, env.progress.Len())
	// Wiped notes are gone, not carried.
	assert.Zero(t, res.NotesCopied)
}

func TestReassignCarriesNotesWithoutWipe(t *testing.T) {
	env := newSagaEnv(t)
	prev := env.seedWeek(t, 2, "Level A1 - Week 2", false)
	env.seedNote(t, prev.ID, shared.DayTuesday, "carried words")
	env.seedNote(t, prev.ID, shared.DayThursday, "more carried words")

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelB2,
		NewWeekNumber: 7,
		CopyNotes:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.NotesCopied)
	assert.Zero(t, res.NotesFailed)
	assert.False(t, res.PartiallyFailed())

	copied, err := env.notes.Get(context.Background(), res.TargetWeek.ID, shared.DayTuesday)
	require.NoError(t, err)
	assert.Equal(t, "carried words", copied.Vocabulary)
	assert.Equal(t, "teacher-1", copied.CreatedBy)
}

func TestReassignLeavesNotesWhenCopyNotRequested(t *testing.T) {
	env := newSagaEnv(t)
	prev := env.seedWeek(t, 2, "Level A1 - Week 2", false)
	env.seedNote(t, prev.ID, shared.DayTuesday, "stays behind")

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelB1,
		NewWeekNumber: 5,
	})
	require.NoError(t, err)

	assert.Zero(t, res.NotesCopied)
	assert.Zero(t, res.NotesFailed)
	// The old week keeps its single note; the target gets none.
	assert.Equal(t, 1, env.notes.Len())
	_, err = env.notes.Get(context.Background(), res.TargetWeek.ID, shared.DayTuesday)
	assert.True(t, shared.IsNotFound(err))
}

func TestReassignNoteCopyFailureIsPartial(t *testing.T) {
	env := newSagaEnv(t)
	prev := env.seedWeek(t, 2, "Level A1 - Week 2", false)
	env.seedNote(t, prev.ID, shared.DayTuesday, "lost words")
	env.notes.UpsertErrs = []error{errors.New("storage hiccup")}

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelB1,
		NewWeekNumber: 6,
		CopyNotes:     true,
	})
	// The move still lands; the loss is reported, not raised.
	require.NoError(t, err)

	assert.True(t, res.PartiallyFailed())
	assert.Equal(t, 1, res.NotesFailed)
	assert.True(t, shared.IsPartialFailure(res.CopyErr))
	assert.Equal(t, shared.LevelB1, res.Profile.Level)
}

func TestReassignSkipsCopyWhenTargetIsPreviousWeek(t *testing.T) {
	env := newSagaEnv(t)
	prev := env.seedWeek(t, 2, "Level A1 - Week 2", false)
	env.seedNote(t, prev.ID, shared.DayFriday, "stay put")

	res, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelA1,
		NewWeekNumber: 2,
		CopyNotes:     true,
	})
	require.NoError(t, err)

	assert.Equal(t, prev.ID, res.TargetWeek.ID)
	assert.Zero(t, res.NotesCopied)
	assert.Equal(t, 1, env.notes.Len())
}

func TestReassignRejectsAlumni(t *testing.T) {
	env := newSagaEnv(t)
	p, err := env.profiles.GetByUserID(context.Background(), testStudent)
	require.NoError(t, err)
	p.MarkAlumni()
	require.NoError(t, env.profiles.Update(context.Background(), p))

	_, err = env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelB1,
		NewWeekNumber: 5,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestReassignRejectsSpecialTargetNumber(t *testing.T) {
	env := newSagaEnv(t)

	_, err := env.saga.Execute(context.Background(), ReassignInput{
		StudentID:     testStudent,
		NewLevel:      shared.LevelA1,
		NewWeekNumber: week.Encode(2, 1),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidWeekNumber)
}
