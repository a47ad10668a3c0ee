// Package report renders usage reports for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/user/xrayboard/internal/model"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/util"
)

// Generator creates usage reports.
type Generator struct {
	agg    *usage.Aggregator
	config *util.Config
}

// NewGenerator creates a new report generator.
func NewGenerator(agg *usage.Aggregator, cfg *util.Config) *Generator {
	return &Generator{
		agg:    agg,
		config: cfg,
	}
}

// Options controls report generation.
type Options struct {
	// EndDate pins the report's last day (YYYY-MM-DD); empty means the
	// latest day with data.
	EndDate      string
	LookbackDays int
}

// Generate builds the dashboard report for the requested window.
func (g *Generator) Generate(opts Options) (*model.DashboardReport, error) {
	end, err := g.agg.ResolveEndDate(opts.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve end date: %w", err)
	}
	lookback := opts.LookbackDays
	if lookback <= 0 {
		lookback = g.config.DefaultLookbackDays
	}
	return g.agg.Aggregate(end, lookback)
}

// FormatJSON renders the report as indented JSON.
func FormatJSON(report *model.DashboardReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatMarkdown renders the report as a markdown document.
func FormatMarkdown(report *model.DashboardReport) string {
	var sb strings.Builder

	line(&sb, "# Usage Report")
	line(&sb, "")
	line(&sb, "Generated: %s", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	line(&sb, "Window: %d days ending %s", report.Meta.LookbackDays, report.Meta.EndDate)
	line(&sb, "")

	line(&sb, "## Totals")
	line(&sb, "")
	weekTraffic := sumTail(report.Global.DailyTrafficBytes, 7)
	weekConns := sumTail(report.Global.DailyConns, 7)
	line(&sb, "- Users: %d", len(report.Meta.Users))
	line(&sb, "- Traffic (7d): %s", HumanBytes(weekTraffic))
	line(&sb, "- Connections (7d): %d", weekConns)
	line(&sb, "- Traffic (full window): %s", HumanBytes(sumTail(report.Global.DailyTrafficBytes, len(report.Global.DailyTrafficBytes))))
	line(&sb, "")

	line(&sb, "## Users (last 7 days)")
	line(&sb, "")
	line(&sb, "| User | Traffic | Prev week | Conns | Flags |")
	line(&sb, "|------|---------|-----------|-------|-------|")
	for _, user := range report.Meta.Users {
		u := report.Users[user]
		flags := ""
		if u.Anomaly {
			flags = "anomaly"
		}
		line(&sb, "| %s | %s | %s | %d | %s |",
			user, HumanBytes(u.Sum7TrafficBytes), HumanBytes(u.SumPrev7TrafficBytes), u.Sum7Conns, flags)
	}
	line(&sb, "")

	if len(report.Global.TopDomainsTraffic) > 0 {
		line(&sb, "## Top destinations by traffic")
		line(&sb, "")
		line(&sb, "| Domain | Traffic | Share |")
		line(&sb, "|--------|---------|-------|")
		for _, e := range report.Global.TopDomainsTraffic {
			line(&sb, "| %s | %s | %.1f%% |", e.Domain, HumanBytes(e.Value), e.SharePct)
		}
		line(&sb, "")
	}

	if len(report.Global.TopDomainsConns) > 0 {
		line(&sb, "## Top destinations by connections")
		line(&sb, "")
		line(&sb, "| Domain | Conns | Share |")
		line(&sb, "|--------|-------|-------|")
		for _, e := range report.Global.TopDomainsConns {
			line(&sb, "| %s | %d | %.1f%% |", e.Domain, e.Value, e.SharePct)
		}
		line(&sb, "")
	}

	return sb.String()
}

// HumanBytes formats a byte count for display.
func HumanBytes(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func sumTail(arr []int64, n int) int64 {
	if len(arr) < n {
		n = len(arr)
	}
	var total int64
	for _, v := range arr[len(arr)-n:] {
		total += v
	}
	return total
}

func line(sb *strings.Builder, format string, args ...interface{}) {
	fmt.Fprintf(sb, format+"\n", args...)
}
