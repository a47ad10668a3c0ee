package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampLookback(t *testing.T) {
	cases := []struct {
		in      int
		want    int
		clamped bool
	}{
		{0, 7, true},
		{-5, 7, true},
		{6, 7, true},
		{7, 7, false},
		{14, 14, false},
		{31, 31, false},
		{32, 31, true},
		{365, 31, true},
	}
	for _, tc := range cases {
		got, clamped := ClampLookback(tc.in)
		assert.Equal(t, tc.want, got, "lookback %d", tc.in)
		assert.Equal(t, tc.clamped, clamped, "lookback %d", tc.in)
	}
}

func TestCalendarDays(t *testing.T) {
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	days := CalendarDays(end, 4)
	assert.Equal(t, []string{"2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10"}, days)
}

func TestCalendarDaysCrossesMonthBoundary(t *testing.T) {
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	days := CalendarDays(end, 3)
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, days)
}

func TestSplitWindow(t *testing.T) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("full fortnight", func(t *testing.T) {
		days := CalendarDays(end, 14)
		current, previous := SplitWindow(days)
		assert.Equal(t, days[7:], current)
		assert.Equal(t, days[:7], previous)
	})

	t.Run("long window keeps trailing weeks", func(t *testing.T) {
		days := CalendarDays(end, 31)
		current, previous := SplitWindow(days)
		assert.Equal(t, days[24:], current)
		assert.Equal(t, days[17:24], previous)
	})

	t.Run("short window has no previous week", func(t *testing.T) {
		days := CalendarDays(end, 10)
		current, previous := SplitWindow(days)
		assert.Equal(t, days[3:], current)
		assert.Nil(t, previous)
	})

	t.Run("exactly a week", func(t *testing.T) {
		days := CalendarDays(end, 7)
		current, previous := SplitWindow(days)
		assert.Equal(t, days, current)
		assert.Nil(t, previous)
	})
}

func TestZeroWeek(t *testing.T) {
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0, 0}, ZeroWeek())
}

func TestSliceFor(t *testing.T) {
	all := []string{"a", "b", "c", "d"}
	arr := []int64{1, 2, 3, 4}

	assert.Equal(t, []int64{2, 4}, SliceFor(all, arr, []string{"b", "d"}))
	assert.Equal(t, []int64{0, 3}, SliceFor(all, arr, []string{"z", "c"}))
	assert.Empty(t, SliceFor(all, arr, nil))
}

func TestSumAndCumulative(t *testing.T) {
	assert.Equal(t, int64(10), Sum([]int64{1, 2, 3, 4}))
	assert.Equal(t, int64(0), Sum(nil))
	assert.Equal(t, []int64{1, 3, 6}, Cumulative([]int64{1, 2, 3}))
	assert.Empty(t, Cumulative(nil))
}
