package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankEmpty(t *testing.T) {
	got := Rank(map[string]int64{}, TopLimit)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankOrderAndShares(t *testing.T) {
	got := Rank(map[string]int64{
		"a.example": 60,
		"b.example": 40,
	}, TopLimit)

	require.Len(t, got, 2)
	assert.Equal(t, "a.example", got[0].Domain)
	assert.InDelta(t, 60.0, got[0].SharePct, 1e-9)
	assert.Equal(t, "b.example", got[1].Domain)
	assert.InDelta(t, 40.0, got[1].SharePct, 1e-9)
}

func TestRankTieBreaksByDomainName(t *testing.T) {
	got := Rank(map[string]int64{
		"zeta.example":  10,
		"alpha.example": 10,
		"mid.example":   20,
	}, TopLimit)

	require.Len(t, got, 3)
	assert.Equal(t, "mid.example", got[0].Domain)
	assert.Equal(t, "alpha.example", got[1].Domain)
	assert.Equal(t, "zeta.example", got[2].Domain)
}

func TestRankSharesUseFullTotalAfterTruncation(t *testing.T) {
	values := map[string]int64{
		"a": 50, "b": 20, "c": 10, "d": 10, "e": 10,
	}
	got := Rank(values, 2)

	require.Len(t, got, 2)
	// 50 of 100 total, not 50 of the 70 surviving the cut.
	assert.InDelta(t, 50.0, got[0].SharePct, 1e-9)
	assert.InDelta(t, 20.0, got[1].SharePct, 1e-9)
}

func TestRankAllZeroValues(t *testing.T) {
	got := Rank(map[string]int64{"a": 0, "b": 0}, TopLimit)
	require.Len(t, got, 2)
	for _, e := range got {
		assert.Zero(t, e.SharePct)
	}
}

func TestAccumulateDomainsFiltersToCurrentWeek(t *testing.T) {
	mapping := map[string]string{"1.1.1.1": "one.example"}
	rows := []DayRows{
		{Day: "2024-01-01", Report: []Row{
			{"user": "alice", "dst": "1.1.1.1", "traffic_bytes": "999"},
		}},
		{Day: "2024-01-08", Report: []Row{
			{"user": "alice", "dst": "1.1.1.1", "traffic_bytes": "60"},
			{"user": "alice", "dst": "irc.example", "traffic_bytes": "40"},
		}, Conns: []Row{
			{"user": "alice", "dst": "1.1.1.1", "conn_count": "5"},
		}},
	}

	totals := AccumulateDomains(rows, []string{"2024-01-08"}, mapping)

	assert.Equal(t, map[string]int64{"one.example": 60, "irc.example": 40}, totals.GlobalTraffic)
	assert.Equal(t, map[string]int64{"one.example": 60, "irc.example": 40}, totals.UserTraffic["alice"])
	assert.Equal(t, map[string]int64{"one.example": 5}, totals.GlobalConns)
}

func TestAccumulateDomainsUnmappedIPAndBlankDst(t *testing.T) {
	rows := []DayRows{
		{Day: "2024-01-08", Report: []Row{
			{"user": "alice", "dst": "9.9.9.9", "traffic_bytes": "30"},
			{"user": "alice", "dst": "", "traffic_bytes": "20"},
		}},
	}

	totals := AccumulateDomains(rows, []string{"2024-01-08"}, map[string]string{})
	assert.Equal(t, map[string]int64{"9.9.9.9": 30, "-": 20}, totals.GlobalTraffic)
}

func TestAccumulateDomainsIdleWeekIsEmpty(t *testing.T) {
	totals := AccumulateDomains(nil, []string{"2024-01-08"}, nil)
	assert.Empty(t, totals.GlobalTraffic)
	assert.Empty(t, totals.GlobalConns)
}
