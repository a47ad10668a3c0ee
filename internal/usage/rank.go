package usage

import (
	"sort"

	"github.com/user/xrayboard/internal/model"
)

// TopLimit caps every ranked domain list.
const TopLimit = 10

// Rank sorts observed per-domain values into a top-N list. Percentages are
// computed against the sum of all values, so truncating to the limit never
// distorts the shown shares. Equal values order by domain name ascending
// for reproducible output. An empty input yields an empty list, never a
// list of zero entries.
func Rank(values map[string]int64, limit int) []model.TopDomainEntry {
	if len(values) == 0 {
		return []model.TopDomainEntry{}
	}

	var total int64
	domains := make([]string, 0, len(values))
	for dom, v := range values {
		domains = append(domains, dom)
		total += v
	}
	sort.Slice(domains, func(i, j int) bool {
		vi, vj := values[domains[i]], values[domains[j]]
		if vi != vj {
			return vi > vj
		}
		return domains[i] < domains[j]
	})

	if limit > 0 && len(domains) > limit {
		domains = domains[:limit]
	}

	out := make([]model.TopDomainEntry, 0, len(domains))
	for _, dom := range domains {
		v := values[dom]
		pct := 0.0
		if total > 0 {
			pct = float64(v) / float64(total) * 100.0
		}
		out = append(out, model.TopDomainEntry{Domain: dom, Value: v, SharePct: pct})
	}
	return out
}

// DomainTotals aggregates per-destination values over the current week
// only: traffic from report rows, connections from conns rows, both keyed
// by resolved domain, globally and per user. Only observed destinations
// enter the maps, so an idle week ranks as empty rather than as zeros.
type DomainTotals struct {
	GlobalTraffic map[string]int64
	GlobalConns   map[string]int64
	UserTraffic   map[string]map[string]int64
	UserConns     map[string]map[string]int64
}

// AccumulateDomains walks the current week's rows and builds DomainTotals.
// currentWeek filters which of the loaded days participate.
func AccumulateDomains(rows []DayRows, currentWeek []string, mapping map[string]string) *DomainTotals {
	week := make(map[string]struct{}, len(currentWeek))
	for _, d := range currentWeek {
		week[d] = struct{}{}
	}

	t := &DomainTotals{
		GlobalTraffic: make(map[string]int64),
		GlobalConns:   make(map[string]int64),
		UserTraffic:   make(map[string]map[string]int64),
		UserConns:     make(map[string]map[string]int64),
	}

	bump := func(per map[string]map[string]int64, global map[string]int64, user, dom string, v int64) {
		m, ok := per[user]
		if !ok {
			m = make(map[string]int64)
			per[user] = m
		}
		m[dom] += v
		global[dom] += v
	}

	for _, dr := range rows {
		if _, ok := week[dr.Day]; !ok {
			continue
		}
		for _, row := range dr.Report {
			user := row.User()
			if user == "" {
				continue
			}
			dom := ResolveDst(row.Dst(), mapping)
			bump(t.UserTraffic, t.GlobalTraffic, user, dom, row.TrafficBytes())
		}
		for _, row := range dr.Conns {
			user := row.User()
			if user == "" {
				continue
			}
			dom := ResolveDst(row.Dst(), mapping)
			bump(t.UserConns, t.GlobalConns, user, dom, row.ConnCount())
		}
	}
	return t
}
