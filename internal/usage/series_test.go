package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSeriesMaxMergesUsageDuplicates(t *testing.T) {
	days := []string{"2024-01-01"}
	rows := []DayRows{{
		Day: "2024-01-01",
		Usage: []Row{
			{"user": "alice", "total_bytes": "100"},
			{"user": "alice", "total_bytes": "300"},
			{"user": "alice", "total_bytes": "200"},
		},
	}}

	set := BuildSeries(days, rows, nil)
	assert.Equal(t, []int64{300}, set.TrafficFor("alice"))
}

func TestBuildSeriesIdempotentReRead(t *testing.T) {
	days := []string{"2024-01-01"}
	day := DayRows{
		Day:   "2024-01-01",
		Usage: []Row{{"user": "alice", "total_bytes": "500"}},
	}

	once := BuildSeries(days, []DayRows{day}, nil)
	twice := BuildSeries(days, []DayRows{day, day}, nil)
	assert.Equal(t, once.TrafficFor("alice"), twice.TrafficFor("alice"))
	assert.Equal(t, once.GlobalTraffic, twice.GlobalTraffic)
}

func TestBuildSeriesReportOverridesUsage(t *testing.T) {
	days := []string{"2024-01-01"}
	rows := []DayRows{{
		Day:   "2024-01-01",
		Usage: []Row{{"user": "alice", "total_bytes": "1000"}},
		Report: []Row{
			{"user": "alice", "dst": "1.1.1.1", "traffic_bytes": "60"},
			{"user": "alice", "dst": "2.2.2.2", "traffic_bytes": "40"},
		},
	}}

	set := BuildSeries(days, rows, nil)
	assert.Equal(t, []int64{100}, set.TrafficFor("alice"))
}

func TestBuildSeriesZeroReportSumKeepsUsage(t *testing.T) {
	days := []string{"2024-01-01"}
	rows := []DayRows{{
		Day:    "2024-01-01",
		Usage:  []Row{{"user": "alice", "total_bytes": "1000"}},
		Report: []Row{{"user": "alice", "dst": "1.1.1.1", "traffic_bytes": "0"}},
	}}

	set := BuildSeries(days, rows, nil)
	assert.Equal(t, []int64{1000}, set.TrafficFor("alice"))
}

func TestBuildSeriesConnsSum(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-02"}
	rows := []DayRows{
		{Day: "2024-01-01", Conns: []Row{
			{"user": "alice", "dst": "1.1.1.1", "conn_count": "3"},
			{"user": "alice", "dst": "2.2.2.2", "conn_count": "4"},
		}},
		{Day: "2024-01-02", Conns: []Row{
			{"user": "alice", "dst": "1.1.1.1", "conn_count": "5"},
		}},
	}

	set := BuildSeries(days, rows, nil)
	assert.Equal(t, []int64{7, 5}, set.ConnsFor("alice"))
	assert.Equal(t, []int64{7, 5}, set.GlobalConns)
}

func TestBuildSeriesZeroFillAndProvisionedUsers(t *testing.T) {
	days := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	rows := []DayRows{
		{Day: "2024-01-02", Usage: []Row{{"user": "bob", "total_bytes": "10"}}},
	}

	set := BuildSeries(days, rows, []string{"carol", "bob", ""})
	require.Equal(t, []string{"bob", "carol"}, set.Users)
	assert.Equal(t, []int64{0, 10, 0}, set.TrafficFor("bob"))
	assert.Equal(t, []int64{0, 0, 0}, set.TrafficFor("carol"))
	assert.Equal(t, []int64{0, 0, 0}, set.ConnsFor("carol"))
}

func TestBuildSeriesGlobalIsSumOverUsers(t *testing.T) {
	days := []string{"2024-01-01"}
	rows := []DayRows{{
		Day: "2024-01-01",
		Usage: []Row{
			{"user": "alice", "total_bytes": "100"},
			{"user": "bob", "total_bytes": "250"},
		},
	}}

	set := BuildSeries(days, rows, nil)
	assert.Equal(t, []int64{350}, set.GlobalTraffic)
}

func TestBuildSeriesIgnoresUnknownDaysAndBlankUsers(t *testing.T) {
	days := []string{"2024-01-01"}
	rows := []DayRows{
		{Day: "2023-12-31", Usage: []Row{{"user": "alice", "total_bytes": "999"}}},
		{Day: "2024-01-01", Usage: []Row{{"user": "", "total_bytes": "999"}}},
	}

	set := BuildSeries(days, rows, nil)
	assert.Empty(t, set.Users)
	assert.Equal(t, []int64{0}, set.GlobalTraffic)
}
