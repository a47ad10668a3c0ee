package usage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticClients struct{ users []string }

func (s *staticClients) ListUsers() []string { return s.users }

func day(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := time.Parse(DayFormat, key)
	require.NoError(t, err)
	return d
}

func TestAggregateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-14.csv", "user,total_bytes\nalice,1000\n")
	writeCSV(t, dir, "report_2024-01-14.csv",
		"user,dst,traffic_bytes\nalice,1.1.1.1,60\nalice,corp.example,40\n")
	writeCSV(t, dir, "conns_2024-01-14.csv",
		"user,dst,conn_count\nalice,1.1.1.1,3\n")
	writeCSV(t, dir, "domains_2024-01-14.csv", "ip,domain\n1.1.1.1,one.example\n")
	writeCSV(t, dir, "usage_2024-01-02.csv", "user,total_bytes\nalice,500\n")

	agg := NewAggregator(dir, &staticClients{users: []string{"bob"}}, 0)
	report, err := agg.Aggregate(day(t, "2024-01-14"), 14)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-14", report.Meta.EndDate)
	assert.Equal(t, 14, report.Meta.LookbackDays)
	assert.Len(t, report.Meta.Days, 14)
	assert.Len(t, report.Meta.CurrentWeek, 7)
	assert.Len(t, report.Meta.PreviousWeek, 7)
	assert.Equal(t, []string{"alice", "bob"}, report.Meta.Users)

	// Global series cover the full lookback, zero-filled for silent days.
	require.Len(t, report.Global.DailyTrafficBytes, 14)
	assert.Equal(t, int64(500), report.Global.DailyTrafficBytes[1])
	// Report rows sum to 100 and override the 1000-byte usage total.
	assert.Equal(t, int64(100), report.Global.DailyTrafficBytes[13])
	assert.Equal(t, int64(600), report.Global.CumulativeTraffic[13])

	alice := report.Users["alice"]
	require.NotNil(t, alice)
	require.Len(t, alice.DailyTrafficBytes, 7)
	assert.Equal(t, int64(100), alice.Sum7TrafficBytes)
	assert.Equal(t, int64(500), alice.SumPrev7TrafficBytes)
	assert.Equal(t, int64(3), alice.Sum7Conns)
	assert.False(t, alice.Anomaly)

	require.Len(t, alice.TopDomainsTraffic, 2)
	assert.Equal(t, "one.example", alice.TopDomainsTraffic[0].Domain)
	assert.Equal(t, int64(60), alice.TopDomainsTraffic[0].Value)
	assert.InDelta(t, 60.0, alice.TopDomainsTraffic[0].SharePct, 1e-9)
	assert.Equal(t, "corp.example", alice.TopDomainsTraffic[1].Domain)
	assert.InDelta(t, 40.0, alice.TopDomainsTraffic[1].SharePct, 1e-9)

	// Provisioned but idle users still appear, all zeros.
	bob := report.Users["bob"]
	require.NotNil(t, bob)
	assert.Equal(t, ZeroWeek(), bob.DailyTrafficBytes)
	assert.Zero(t, bob.Sum7TrafficBytes)
	assert.Empty(t, bob.TopDomainsTraffic)
	assert.False(t, bob.Anomaly)
}

func TestAggregateShortHistoryZeroPreviousWeek(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-10.csv", "user,total_bytes\nalice,100\n")

	agg := NewAggregator(dir, nil, 0)
	report, err := agg.Aggregate(day(t, "2024-01-10"), 10)
	require.NoError(t, err)

	assert.Empty(t, report.Meta.PreviousWeek)
	assert.NotNil(t, report.Meta.PreviousWeek)
	assert.Equal(t, ZeroWeek(), report.Global.PrevDailyTrafficBytes)
	assert.Equal(t, ZeroWeek(), report.Users["alice"].PrevDailyTrafficBytes)
	assert.Zero(t, report.Users["alice"].SumPrev7TrafficBytes)
}

func TestAggregateClampsLookback(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-10.csv", "user,total_bytes\nalice,100\n")

	agg := NewAggregator(dir, nil, 0)

	report, err := agg.Aggregate(day(t, "2024-01-10"), 3)
	require.NoError(t, err)
	assert.Equal(t, 7, report.Meta.LookbackDays)
	assert.Len(t, report.Global.DailyTrafficBytes, 7)

	report, err = agg.Aggregate(day(t, "2024-01-10"), 365)
	require.NoError(t, err)
	assert.Equal(t, 31, report.Meta.LookbackDays)
	assert.Len(t, report.Global.DailyTrafficBytes, 31)
}

func TestAggregateFlagsAnomaly(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-10.csv", "user,total_bytes\nalice,1000000000\nbob,999999999\n")

	agg := NewAggregator(dir, nil, 0)
	report, err := agg.Aggregate(day(t, "2024-01-10"), 7)
	require.NoError(t, err)

	assert.True(t, report.Users["alice"].Anomaly)
	assert.False(t, report.Users["bob"].Anomaly)
}

func TestAggregateMissingDataDir(t *testing.T) {
	agg := NewAggregator(filepath.Join(t.TempDir(), "absent"), nil, 0)
	_, err := agg.Aggregate(day(t, "2024-01-10"), 14)
	assert.Error(t, err)
}

func TestResolveEndDate(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-05.csv", "user,total_bytes\n")
	writeCSV(t, dir, "usage_2024-01-10.csv", "user,total_bytes\n")

	agg := NewAggregator(dir, nil, 0)

	latest := day(t, "2024-01-10")
	cases := []struct {
		requested string
		want      time.Time
	}{
		{"", latest},
		{"2024-01-07", day(t, "2024-01-07")},
		{"2024-02-01", latest},
		{"not-a-date", latest},
	}
	for _, tc := range cases {
		got, err := agg.ResolveEndDate(tc.requested)
		require.NoError(t, err)
		assert.True(t, got.Equal(tc.want), "requested %q: got %v", tc.requested, got)
	}
}

func TestResolveEndDateNoData(t *testing.T) {
	agg := NewAggregator(t.TempDir(), nil, 0)
	got, err := agg.ResolveEndDate("")
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Format(DayFormat), got.Format(DayFormat))
}

func TestSummaryRows(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-10.csv", "user,total_bytes\nalice,100\n")
	writeCSV(t, dir, "conns_2024-01-10.csv", "user,dst,conn_count\nalice,x.example,4\n")

	agg := NewAggregator(dir, nil, 0)

	pack, err := agg.Summary(day(t, "2024-01-10"), 7, "traffic")
	require.NoError(t, err)
	require.Len(t, pack.Rows, 7)
	last := pack.Rows[6]
	assert.Equal(t, "2024-01-10", last.Date)
	assert.Equal(t, "alice", last.User)
	assert.Equal(t, int64(100), last.Value)

	pack, err = agg.Summary(day(t, "2024-01-10"), 7, "conns")
	require.NoError(t, err)
	assert.Equal(t, int64(4), pack.Rows[6].Value)
}

func TestTopForUserDay(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "report_2024-01-10.csv",
		"user,dst,traffic_bytes\nalice,1.1.1.1,60\nalice,corp.example,40\nbob,corp.example,999\n")
	writeCSV(t, dir, "conns_2024-01-10.csv",
		"user,dst,conn_count\nalice,1.1.1.1,5\n")
	writeCSV(t, dir, "domains_2024-01-10.csv", "ip,domain\n1.1.1.1,one.example\n")

	agg := NewAggregator(dir, nil, 0)

	top := agg.TopForUserDay("2024-01-10", "alice", "traffic", 100)
	require.Len(t, top, 2)
	assert.Equal(t, "one.example", top[0].Domain)
	assert.Equal(t, int64(60), top[0].Value)

	top = agg.TopForUserDay("2024-01-10", "alice", "conns", 100)
	require.Len(t, top, 1)
	assert.Equal(t, int64(5), top[0].Value)

	assert.Empty(t, agg.TopForUserDay("2024-01-11", "alice", "traffic", 100))
}

func TestUsersForDate(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "usage_2024-01-10.csv", "user,total_bytes\nalice,1\n")
	writeCSV(t, dir, "conns_2024-01-10.csv", "user,dst,conn_count\ncarol,x,1\n")

	agg := NewAggregator(dir, &staticClients{users: []string{"bob"}}, 0)
	assert.Equal(t, []string{"alice", "bob", "carol"}, agg.UsersForDate("2024-01-10"))
	assert.Equal(t, []string{"bob"}, agg.UsersForDate("2024-01-11"))
}
