package usage

import (
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/xrayboard/internal/model"
)

// loadConcurrency bounds the parallel per-day CSV loads. Days share no
// state, so correctness does not depend on this; it only trims latency.
const loadConcurrency = 4

// ClientLister supplies the proxy's provisioned users so the dashboard
// shows them even before they generate any traffic.
type ClientLister interface {
	ListUsers() []string
}

// Aggregator composes the readers, the series builder, the ranker and the
// anomaly flagger into full dashboard reports.
type Aggregator struct {
	reader  *Reader
	clients ClientLister
	flagger *AnomalyFlagger
}

// NewAggregator wires an aggregator over a data directory. clients may be
// nil when no proxy config is available.
func NewAggregator(dataDir string, clients ClientLister, anomalyThresholdBytes int64) *Aggregator {
	return &Aggregator{
		reader:  &Reader{Dir: dataDir},
		clients: clients,
		flagger: NewAnomalyFlagger(anomalyThresholdBytes),
	}
}

// DataDir exposes the directory the aggregator reads from.
func (a *Aggregator) DataDir() string {
	return a.reader.Dir
}

// ScanDates lists every day with any source CSV present.
func (a *Aggregator) ScanDates() ([]string, error) {
	return a.reader.ScanDates()
}

// ResolveEndDate picks the report end date: the requested day when it is
// parseable and within the available data, otherwise the latest day any
// CSV exists for. The report never extends past available data, and an
// unreadable data directory is the only error.
func (a *Aggregator) ResolveEndDate(requested string) (time.Time, error) {
	dates, err := a.reader.ScanDates()
	if err != nil {
		return time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	latest, _ := time.Parse(DayFormat, dates[len(dates)-1])
	if requested == "" {
		return latest, nil
	}
	req, err := time.Parse(DayFormat, requested)
	if err != nil {
		return latest, nil
	}
	if req.After(latest) {
		return latest, nil
	}
	return req, nil
}

// Aggregate builds the complete dashboard report for the lookback window
// ending at end. Missing or malformed day files degrade to zeros; the
// report is always fully populated. The output is deterministic for
// identical inputs, which the result cache's content hash relies on.
func (a *Aggregator) Aggregate(end time.Time, lookbackDays int) (*model.DashboardReport, error) {
	if _, err := os.Stat(a.reader.Dir); err != nil {
		return nil, fmt.Errorf("data dir unavailable: %w", err)
	}

	lookbackDays, _ = ClampLookback(lookbackDays)
	days := CalendarDays(end, lookbackDays)

	rows := make([]DayRows, len(days))
	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for i, day := range days {
		i, day := i, day
		g.Go(func() error {
			rows[i] = a.reader.LoadDay(day)
			return nil
		})
	}
	g.Wait()

	endKey := days[len(days)-1]
	mapping := a.reader.LoadDomainMap(endKey)

	var provisioned []string
	if a.clients != nil {
		provisioned = a.clients.ListUsers()
	}

	set := BuildSeries(days, rows, provisioned)
	current, previous := SplitWindow(days)
	totals := AccumulateDomains(rows, current, mapping)

	prevSlice := func(arr []int64) []int64 {
		if previous == nil {
			return ZeroWeek()
		}
		return SliceFor(days, arr, previous)
	}

	report := &model.DashboardReport{
		Meta: model.ReportMeta{
			EndDate:      endKey,
			LookbackDays: lookbackDays,
			Days:         days,
			CurrentWeek:  current,
			PreviousWeek: appendEmpty(previous),
			Users:        set.Users,
		},
		Global: model.GlobalReport{
			DailyTrafficBytes:     set.GlobalTraffic,
			DailyConns:            set.GlobalConns,
			CumulativeTraffic:     Cumulative(set.GlobalTraffic),
			CumulativeConns:       Cumulative(set.GlobalConns),
			PrevDailyTrafficBytes: prevSlice(set.GlobalTraffic),
			PrevDailyConns:        prevSlice(set.GlobalConns),
			TopDomainsTraffic:     Rank(totals.GlobalTraffic, TopLimit),
			TopDomainsConns:       Rank(totals.GlobalConns, TopLimit),
		},
		Users: make(map[string]*model.UserReport, len(set.Users)),
	}

	for _, user := range set.Users {
		traffic := set.TrafficFor(user)
		conns := set.ConnsFor(user)
		curTraffic := SliceFor(days, traffic, current)
		curConns := SliceFor(days, conns, current)
		prevTraffic := prevSlice(traffic)
		prevConns := prevSlice(conns)

		report.Users[user] = &model.UserReport{
			DailyTrafficBytes:     curTraffic,
			DailyConns:            curConns,
			PrevDailyTrafficBytes: prevTraffic,
			PrevDailyConns:        prevConns,
			Sum7TrafficBytes:      Sum(curTraffic),
			Sum7Conns:             Sum(curConns),
			SumPrev7TrafficBytes:  Sum(prevTraffic),
			SumPrev7Conns:         Sum(prevConns),
			TopDomainsTraffic:     Rank(totals.UserTraffic[user], TopLimit),
			TopDomainsConns:       Rank(totals.UserConns[user], TopLimit),
			Anomaly:               a.flagger.Flag(curTraffic),
		}
	}

	return report, nil
}

// Summary flattens per-user daily values into the legacy {date,user,value}
// row format. kind is "traffic" or "conns".
func (a *Aggregator) Summary(end time.Time, lookbackDays int, kind string) (*model.SummaryPack, error) {
	report, err := a.raw(end, lookbackDays)
	if err != nil {
		return nil, err
	}
	pack := &model.SummaryPack{
		Days:  report.Days,
		Users: report.Users,
		Rows:  make([]model.SummaryRow, 0, len(report.Users)*len(report.Days)),
	}
	for _, user := range report.Users {
		var arr []int64
		if kind == "conns" {
			arr = report.set.ConnsFor(user)
		} else {
			arr = report.set.TrafficFor(user)
		}
		for i, day := range report.Days {
			pack.Rows = append(pack.Rows, model.SummaryRow{Date: day, User: user, Value: arr[i]})
		}
	}
	return pack, nil
}

type rawSeries struct {
	Days  []string
	Users []string
	set   *SeriesSet
}

func (a *Aggregator) raw(end time.Time, lookbackDays int) (*rawSeries, error) {
	if _, err := os.Stat(a.reader.Dir); err != nil {
		return nil, fmt.Errorf("data dir unavailable: %w", err)
	}
	lookbackDays, _ = ClampLookback(lookbackDays)
	days := CalendarDays(end, lookbackDays)
	rows := make([]DayRows, len(days))
	for i, day := range days {
		rows[i] = a.reader.LoadDay(day)
	}
	var provisioned []string
	if a.clients != nil {
		provisioned = a.clients.ListUsers()
	}
	set := BuildSeries(days, rows, provisioned)
	return &rawSeries{Days: days, Users: set.Users, set: set}, nil
}

// UsersForDate lists everyone seen in any CSV on one day, merged with the
// provisioned client list.
func (a *Aggregator) UsersForDate(day string) []string {
	rows := a.reader.LoadDay(day)
	seen := make(map[string]struct{})
	for _, group := range [][]Row{rows.Usage, rows.Report, rows.Conns} {
		for _, row := range group {
			if u := row.User(); u != "" {
				seen[u] = struct{}{}
			}
		}
	}
	if a.clients != nil {
		for _, u := range a.clients.ListUsers() {
			if u != "" {
				seen[u] = struct{}{}
			}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// TopForUserDay ranks one user's destinations for a single day. kind is
// "traffic" or "conns". Unknown days or users simply rank empty.
func (a *Aggregator) TopForUserDay(day, user, kind string, limit int) []model.TopDomainEntry {
	rows := a.reader.LoadDay(day)
	mapping := a.reader.LoadDomainMap(day)

	values := make(map[string]int64)
	if kind == "conns" {
		for _, row := range rows.Conns {
			if row.User() == user {
				values[ResolveDst(row.Dst(), mapping)] += row.ConnCount()
			}
		}
	} else {
		for _, row := range rows.Report {
			if row.User() == user {
				values[ResolveDst(row.Dst(), mapping)] += row.TrafficBytes()
			}
		}
	}
	return Rank(values, limit)
}

// appendEmpty normalizes a nil previous-week slice to an empty one so the
// JSON field is always an array.
func appendEmpty(days []string) []string {
	if days == nil {
		return []string{}
	}
	return days
}
