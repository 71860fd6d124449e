package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/domain/shared"
)

func strptr(s string) *string { return &s }

func TestAllowedFields(t *testing.T) {
	teacher := AllowedFields(shared.RoleTeacher)
	assert.True(t, teacher[FieldClassTopics])
	assert.False(t, teacher[FieldTutoringTopics])
	assert.True(t, teacher[FieldVocabulary])
	assert.True(t, teacher[FieldAchievements])
	assert.True(t, teacher[FieldChallenges])

	tutor := AllowedFields(shared.RoleTutor)
	assert.False(t, tutor[FieldClassTopics])
	assert.True(t, tutor[FieldTutoringTopics])
	assert.True(t, tutor[FieldVocabulary])

	admin := AllowedFields(shared.RoleAdmin)
	for _, f := range ContentFields {
		assert.True(t, admin[f], "admin should write %s", f)
	}

	student := AllowedFields(shared.RoleStudent)
	assert.Empty(t, student)
}

func TestCheckPermissions(t *testing.T) {
	// Tutor writing class_topics is rejected.
	c := Content{ClassTopics: strptr("past tense drills")}
	err := c.CheckPermissions(shared.RoleTutor)
	require.Error(t, err)
	assert.True(t, shared.IsPermission(err))

	// Same tutor writing only tutoring_topics succeeds.
	c = Content{TutoringTopics: strptr("conversation practice")}
	assert.NoError(t, c.CheckPermissions(shared.RoleTutor))

	// Teacher cannot write tutoring_topics.
	c = Content{TutoringTopics: strptr("x")}
	assert.Error(t, c.CheckPermissions(shared.RoleTeacher))

	// Admin writes everything.
	c = Content{
		ClassTopics:    strptr("a"),
		TutoringTopics: strptr("b"),
		Vocabulary:     strptr("c"),
	}
	assert.NoError(t, c.CheckPermissions(shared.RoleAdmin))
}

func TestApplyIsPartial(t *testing.T) {
	n, err := NewNote("n1", "w1", shared.DayTuesday, "teacher-1")
	require.NoError(t, err)

	n.Apply(Content{ClassTopics: strptr("conditionals"), Vocabulary: strptr("weather words")})
	assert.Equal(t, "conditionals", n.ClassTopics)
	assert.Equal(t, "weather words", n.Vocabulary)

	// nil fields leave existing values untouched; set fields overwrite.
	n.Apply(Content{Vocabulary: strptr("travel words")})
	assert.Equal(t, "conditionals", n.ClassTopics)
	assert.Equal(t, "travel words", n.Vocabulary)

	// Explicit empty string clears.
	n.Apply(Content{ClassTopics: strptr("")})
	assert.Empty(t, n.ClassTopics)
}

func TestIsEmpty(t *testing.T) {
	n, err := NewNote("n1", "w1", shared.DayFriday, "tutor-1")
	require.NoError(t, err)
	assert.True(t, n.IsEmpty())

	n.Apply(Content{Achievements: strptr("spoke for 5 minutes unprompted")})
	assert.False(t, n.IsEmpty())

	n.Apply(Content{Achievements: strptr("   ")})
	assert.True(t, n.IsEmpty())
}

func TestNewNoteValidation(t *testing.T) {
	_, err := NewNote("n1", "w1", shared.DayType("monday"), "t")
	assert.ErrorIs(t, err, shared.ErrInvalidDayType)

	_, err = NewNote("", "w1", shared.DayTuesday, "t")
	assert.Error(t, err)
}

func TestCopyTo(t *testing.T) {
	n, err := NewNote("n1", "w1", shared.DayWednesday, "teacher-1")
	require.NoError(t, err)
	n.Apply(Content{
		ClassTopics: strptr("phrasal verbs"),
		Challenges:  strptr("listening speed"),
	})

	copied := n.CopyTo("n2", "w2")
	assert.Equal(t, "n2", copied.ID)
	assert.Equal(t, "w2", copied.WeekID)
	assert.Equal(t, shared.DayWednesday, copied.DayType)
	assert.Equal(t, "phrasal verbs", copied.ClassTopics)
	assert.Equal(t, "listening speed", copied.Challenges)
	// Original author survives the copy.
	assert.Equal(t, "teacher-1", copied.CreatedBy)
}

func TestDayOrder(t *testing.T) {
	assert.Equal(t, 0, shared.DayTuesday.Order())
	assert.Equal(t, 3, shared.DayFriday.Order())
	assert.Equal(t, []shared.DayType{
		shared.DayTuesday, shared.DayWednesday, shared.DayThursday, shared.DayFriday,
	}, shared.ClassDays)
}
