package usage

import "time"

// Lookback bounds. Requests outside the range are clamped, never rejected.
const (
	MinLookbackDays = 7
	MaxLookbackDays = 31
	WeekDays        = 7
)

// ClampLookback clamps a requested lookback length into [7, 31] and reports
// whether clamping happened, so callers can assert on both independently.
func ClampLookback(n int) (int, bool) {
	switch {
	case n < MinLookbackDays:
		return MinLookbackDays, true
	case n > MaxLookbackDays:
		return MaxLookbackDays, true
	default:
		return n, false
	}
}

// CalendarDays returns n consecutive day keys ending at end, oldest first.
func CalendarDays(end time.Time, n int) []string {
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[n-1-i] = end.AddDate(0, 0, -i).Format(DayFormat)
	}
	return days
}

// SplitWindow splits an ordered day list into the trailing 7-day current
// week and the 7 days immediately preceding it. The previous week is nil
// when fewer than 14 days are available; fixed-length zero arrays for that
// case are the callers' concern (see ZeroWeek).
func SplitWindow(days []string) (current, previous []string) {
	if len(days) <= WeekDays {
		return days, nil
	}
	current = days[len(days)-WeekDays:]
	if len(days) >= 2*WeekDays {
		previous = days[len(days)-2*WeekDays : len(days)-WeekDays]
	}
	return current, previous
}

// ZeroWeek is a fresh all-zero 7-entry array, used wherever a previous-week
// series is promised but no previous week exists.
func ZeroWeek() []int64 {
	return make([]int64, WeekDays)
}

// SliceFor projects values for the given keys out of a full-window array.
// Keys not present in all default to zero.
func SliceFor(all []string, arr []int64, keys []string) []int64 {
	index := make(map[string]int, len(all))
	for i, d := range all {
		index[d] = i
	}
	out := make([]int64, len(keys))
	for i, k := range keys {
		if j, ok := index[k]; ok && j < len(arr) {
			out[i] = arr[j]
		}
	}
	return out
}

// Sum totals an int64 series.
func Sum(arr []int64) int64 {
	var total int64
	for _, v := range arr {
		total += v
	}
	return total
}

// Cumulative returns the running total of a daily series.
func Cumulative(arr []int64) []int64 {
	out := make([]int64, len(arr))
	var acc int64
	for i, v := range arr {
		acc += v
		out[i] = acc
	}
	return out
}
