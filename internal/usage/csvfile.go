// Package usage implements the aggregation engine behind the dashboard:
// it reads the collector's daily CSV drops (per-user totals, per-destination
// traffic and connections, IP to domain mappings) and reconciles them into
// per-user and global reports.
package usage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Source file kinds, used in the {kind}_{YYYY-MM-DD}.csv naming convention.
const (
	KindUsage   = "usage"
	KindConns   = "conns"
	KindReport  = "report"
	KindDomains = "domains"
)

// DayFormat is the calendar-day layout used in file names and JSON keys.
const DayFormat = "2006-01-02"

var dateInName = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2})\.csv$`)

// Row is one CSV row keyed by (lowercased) column name. Missing trailing
// fields are present with empty-string values.
type Row map[string]string

// FilePath returns the path of one day's file for a source kind.
func FilePath(dir, kind, day string) string {
	return filepath.Join(dir, kind+"_"+day+".csv")
}

// ReadRows reads one CSV file into rows. A missing file yields no rows and
// no error; data-quality problems never do either. The header row is
// auto-detected: if the first field of the first line contains a letter it
// is treated as a header, otherwise columns get positional names col0..colN.
func ReadRows(path string) []Row {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var lines []string
	for _, ln := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, strings.TrimRight(ln, "\r"))
		}
	}
	if len(lines) == 0 {
		return nil
	}

	first := strings.Split(lines[0], ",")
	hasHeader := strings.ContainsFunc(first[0], func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})

	var header []string
	body := lines
	if hasHeader {
		for _, h := range first {
			header = append(header, strings.ToLower(strings.TrimSpace(h)))
		}
		body = lines[1:]
	} else {
		for i := range first {
			header = append(header, fmt.Sprintf("col%d", i))
		}
	}

	rows := make([]Row, 0, len(body))
	for _, ln := range body {
		fields := strings.Split(ln, ",")
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = strings.TrimSpace(fields[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// parseNumber coerces a CSV field through a float-then-int cast. Empty or
// malformed values report ok=false; callers default to zero.
func parseNumber(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// numberField is one named extraction strategy for a numeric column.
type numberField struct {
	name string
	get  func(Row) (int64, bool)
}

func column(names ...string) func(Row) (int64, bool) {
	return func(r Row) (int64, bool) {
		for _, n := range names {
			if v, ok := parseNumber(r[n]); ok {
				return v, true
			}
		}
		return 0, false
	}
}

// trafficStrategies is the ordered fallback chain for a usage row's byte
// count. The first strategy that yields a value wins; the uplink+downlink
// sum requires both halves to parse.
var trafficStrategies = []numberField{
	{name: "total_bytes", get: column("total_bytes")},
	{name: "bytes", get: column("bytes")},
	{name: "uplink+downlink", get: func(r Row) (int64, bool) {
		up, okUp := parseNumber(r["uplink_bytes"])
		if !okUp {
			up, okUp = parseNumber(r["up_bytes"])
		}
		down, okDown := parseNumber(r["downlink_bytes"])
		if !okDown {
			down, okDown = parseNumber(r["down_bytes"])
		}
		if !okUp && !okDown {
			return 0, false
		}
		return up + down, true
	}},
}

// User returns the row's user identifier (user column, email fallback).
func (r Row) User() string {
	if u := strings.TrimSpace(r["user"]); u != "" {
		return u
	}
	return strings.TrimSpace(r["email"])
}

// Dst returns the row's raw destination (IP or hostname).
func (r Row) Dst() string {
	return strings.TrimSpace(r["dst"])
}

// TotalBytes extracts a usage row's byte count via trafficStrategies,
// defaulting to 0.
func (r Row) TotalBytes() int64 {
	for _, s := range trafficStrategies {
		if v, ok := s.get(r); ok {
			return v
		}
	}
	return 0
}

// TrafficBytes extracts a report row's per-destination byte count,
// defaulting to 0.
func (r Row) TrafficBytes() int64 {
	v, _ := parseNumber(r["traffic_bytes"])
	return v
}

// ConnCount extracts a connections row's count (conn_count, conns or count
// column), defaulting to 0.
func (r Row) ConnCount() int64 {
	for _, name := range []string{"conn_count", "conns", "count"} {
		if v, ok := parseNumber(r[name]); ok {
			return v
		}
	}
	return 0
}

// DayRows bundles everything read for one calendar day.
type DayRows struct {
	Day    string
	Usage  []Row
	Report []Row
	Conns  []Row
}

// Reader loads day files from the collector's data directory.
type Reader struct {
	Dir string
}

// LoadDay reads the usage, report and connections files for one day.
// Missing files simply leave the corresponding slice empty.
func (r *Reader) LoadDay(day string) DayRows {
	return DayRows{
		Day:    day,
		Usage:  ReadRows(FilePath(r.Dir, KindUsage, day)),
		Report: ReadRows(FilePath(r.Dir, KindReport, day)),
		Conns:  ReadRows(FilePath(r.Dir, KindConns, day)),
	}
}

// ScanDates lists every calendar day for which any source CSV exists,
// sorted ascending. An unreadable data directory is the one genuine error
// in this package: it signals misconfiguration, not absent data.
func (r *Reader) ScanDates() ([]string, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir %s: %w", r.Dir, err)
	}

	seen := make(map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		known := false
		for _, k := range []string{KindUsage, KindConns, KindReport, KindDomains} {
			if strings.HasPrefix(name, k+"_") {
				known = true
				break
			}
		}
		if !known {
			continue
		}
		m := dateInName.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if _, err := time.Parse(DayFormat, m[1]); err != nil {
			continue
		}
		seen[m[1]] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}
