package usage

import "sort"

// SeriesSet holds the reconciled daily series for every user plus the
// global totals. All arrays are indexed like Days and zero-filled for days
// without data.
type SeriesSet struct {
	Days          []string
	Users         []string
	UserTraffic   map[string][]int64
	UserConns     map[string][]int64
	GlobalTraffic []int64
	GlobalConns   []int64
}

// BuildSeries reconciles one lookback window's rows into per-user and
// global daily series. Three sources feed it, in precedence order:
//
//  1. usage files carry pre-aggregated daily totals; conflicting values for
//     the same (user, day) resolve via max, so re-reading a file never
//     inflates the total and the higher of two partial writes wins;
//  2. report files carry the destination-resolved breakdown; when its
//     per-(user, day) sum is positive it replaces the usage-derived value
//     outright;
//  3. connection files are the only source for connection counts and sum
//     straight through.
//
// provisioned lists users from the proxy's client list; they appear with
// all-zero series even before any CSV mentions them.
func BuildSeries(days []string, rows []DayRows, provisioned []string) *SeriesSet {
	n := len(days)
	dayIndex := make(map[string]int, n)
	for i, d := range days {
		dayIndex[d] = i
	}

	userSet := make(map[string]struct{})
	traffic := make(map[string][]int64)
	conns := make(map[string][]int64)

	series := func(m map[string][]int64, user string) []int64 {
		s, ok := m[user]
		if !ok {
			s = make([]int64, n)
			m[user] = s
		}
		return s
	}

	// Pass 1: usage daily totals, max-merged per (user, day).
	for _, dr := range rows {
		i, ok := dayIndex[dr.Day]
		if !ok {
			continue
		}
		for _, row := range dr.Usage {
			user := row.User()
			if user == "" {
				continue
			}
			userSet[user] = struct{}{}
			s := series(traffic, user)
			if b := row.TotalBytes(); b > s[i] {
				s[i] = b
			}
		}
	}

	// Pass 2: report sums override usage totals where positive.
	for _, dr := range rows {
		i, ok := dayIndex[dr.Day]
		if !ok {
			continue
		}
		sums := make(map[string]int64)
		for _, row := range dr.Report {
			user := row.User()
			if user == "" {
				continue
			}
			userSet[user] = struct{}{}
			sums[user] += row.TrafficBytes()
		}
		for user, sum := range sums {
			if sum > 0 {
				series(traffic, user)[i] = sum
			}
		}
	}

	// Pass 3: connection counts, straight summation.
	for _, dr := range rows {
		i, ok := dayIndex[dr.Day]
		if !ok {
			continue
		}
		for _, row := range dr.Conns {
			user := row.User()
			if user == "" {
				continue
			}
			userSet[user] = struct{}{}
			series(conns, user)[i] += row.ConnCount()
		}
	}

	for _, user := range provisioned {
		if user != "" {
			userSet[user] = struct{}{}
		}
	}

	users := make([]string, 0, len(userSet))
	for u := range userSet {
		users = append(users, u)
	}
	sort.Strings(users)

	globalTraffic := make([]int64, n)
	globalConns := make([]int64, n)
	for _, u := range users {
		t := series(traffic, u)
		c := series(conns, u)
		for i := 0; i < n; i++ {
			globalTraffic[i] += t[i]
			globalConns[i] += c[i]
		}
	}

	return &SeriesSet{
		Days:          days,
		Users:         users,
		UserTraffic:   traffic,
		UserConns:     conns,
		GlobalTraffic: globalTraffic,
		GlobalConns:   globalConns,
	}
}

// TrafficFor returns the user's daily traffic series (zeros for unknown
// users).
func (s *SeriesSet) TrafficFor(user string) []int64 {
	if arr, ok := s.UserTraffic[user]; ok {
		return arr
	}
	return make([]int64, len(s.Days))
}

// ConnsFor returns the user's daily connection series (zeros for unknown
// users).
func (s *SeriesSet) ConnsFor(user string) []int64 {
	if arr, ok := s.UserConns[user]; ok {
		return arr
	}
	return make([]int64, len(s.Days))
}
