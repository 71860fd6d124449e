package week

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linguahub/progression-hub/internal/domain/shared"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		base    int
		ordinal int
		want    int
	}{
		{1, 1, 101},
		{2, 1, 201},
		{2, 2, 202},
		{12, 1, 1201},
		{7, 15, 715},
	}

	for _, tc := range cases {
		encoded := Encode(tc.base, tc.ordinal)
		assert.Equal(t, tc.want, encoded)

		kind := Decode(encoded)
		assert.True(t, kind.IsSpecial())
		assert.Equal(t, tc.base, kind.Base)
		assert.Equal(t, tc.ordinal, kind.Ordinal)
		assert.Equal(t, encoded, kind.Encode())
	}
}

func TestDecodeRegular(t *testing.T) {
	for n := 1; n <= MaxRegularWeek; n++ {
		kind := Decode(n)
		assert.False(t, kind.IsSpecial())
		assert.Equal(t, n, kind.Base)
		assert.Equal(t, n, kind.Encode())
	}
}

func TestSpecialRange(t *testing.T) {
	low, high := SpecialRange(2)
	assert.Equal(t, 200, low)
	assert.Equal(t, 300, high)

	assert.True(t, IsSpecialNumber(201))
	assert.False(t, IsSpecialNumber(12))
	assert.True(t, IsSpecialNumber(100))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "Level B1 - Week 5", RegularTheme(shared.LevelB1, 5))
	assert.Equal(t, "Week 2-1+", SpecialTheme(2, 1))
	assert.Equal(t, "Week 2-2+", SpecialTheme(2, 2))
	assert.Equal(t, "Week 2-1+", Special(2, 1).String())
}

func TestLevelForWeekTable(t *testing.T) {
	cases := map[int]shared.Level{
		1:  shared.LevelA1,
		2:  shared.LevelA1,
		3:  shared.LevelA2,
		4:  shared.LevelA2,
		5:  shared.LevelB1,
		6:  shared.LevelB1,
		7:  shared.LevelB2,
		8:  shared.LevelB2,
		9:  shared.LevelC1,
		10: shared.LevelC1,
		11: shared.LevelC2,
		12: shared.LevelC2,
	}
	for n, want := range cases {
		assert.Equal(t, want, shared.LevelForWeek(n), "week %d", n)
	}

	// Out-of-range defaults to A1.
	assert.Equal(t, shared.LevelA1, shared.LevelForWeek(13))
	assert.Equal(t, shared.LevelA1, shared.LevelForWeek(0))
}

func TestCompleteAndReopen(t *testing.T) {
	w, err := NewWeek(NewWeekParams{
		ID:         "w1",
		StudentID:  "s1",
		WeekNumber: 3,
		Theme:      "Level A2 - Week 3",
	})
	require.NoError(t, err)
	assert.False(t, w.IsCompleted)
	assert.Nil(t, w.CompletedAt)

	w.Complete("teacher-1")
	assert.True(t, w.IsCompleted)
	assert.Equal(t, "teacher-1", w.CompletedBy)
	require.NotNil(t, w.CompletedAt)

	w.Reopen()
	assert.False(t, w.IsCompleted)
	assert.Empty(t, w.CompletedBy)
	assert.Nil(t, w.CompletedAt)
}

func TestCascadeTarget(t *testing.T) {
	mk := func(n int) *Week {
		w, err := NewWeek(NewWeekParams{ID: "w", StudentID: "s", WeekNumber: n})
		require.NoError(t, err)
		return w
	}

	next, ok := mk(3).CascadeTarget()
	assert.True(t, ok)
	assert.Equal(t, 4, next)

	next, ok = mk(11).CascadeTarget()
	assert.True(t, ok)
	assert.Equal(t, 12, next)

	// Week 12 is terminal.
	_, ok = mk(MaxRegularWeek).CascadeTarget()
	assert.False(t, ok)

	// Specials never cascade.
	_, ok = mk(Encode(2, 1)).CascadeTarget()
	assert.False(t, ok)
}

func TestNewWeekValidation(t *testing.T) {
	_, err := NewWeek(NewWeekParams{ID: "", StudentID: "s", WeekNumber: 1})
	assert.Error(t, err)

	_, err = NewWeek(NewWeekParams{ID: "w", StudentID: " ", WeekNumber: 1})
	assert.Error(t, err)

	_, err = NewWeek(NewWeekParams{ID: "w", StudentID: "s", WeekNumber: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
