package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/user/xrayboard/internal/model"
)

// Dashboard is the main dashboard view.
type Dashboard struct {
	report *model.DashboardReport
	width  int
	height int
}

// NewDashboard creates a new dashboard.
func NewDashboard(msg dataMsg, width, height int) *Dashboard {
	return &Dashboard{
		report: msg.Report,
		width:  width,
		height: height,
	}
}

// SetSize updates the dashboard size.
func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	var sb strings.Builder

	header := HeaderStyle.Width(d.width).Render("📊 Xray Usage Dashboard")
	sb.WriteString(header)
	sb.WriteString("\n\n")

	sb.WriteString(d.renderOverviewSection())
	sb.WriteString("\n")

	sb.WriteString(d.renderUsersSection())
	sb.WriteString("\n")

	sb.WriteString(d.renderDomainsSection())
	sb.WriteString("\n")

	help := HelpStyle.Render("Press 'r' to refresh • 'q' to quit")
	sb.WriteString(help)

	return sb.String()
}

func (d *Dashboard) sectionWidth() int {
	w := d.width - 4
	if w < 48 {
		w = 48
	}
	return w
}

func (d *Dashboard) renderOverviewSection() string {
	g := d.report.Global
	weekTraffic := sumTail(g.DailyTrafficBytes, 7)
	weekConns := sumTail(g.DailyConns, 7)

	content := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s\n%s %s",
		LabelStyle.Render("End date:"),
		ValueStyle.Render(d.report.Meta.EndDate),
		LabelStyle.Render("Window:"),
		ValueStyle.Render(fmt.Sprintf("%d days", d.report.Meta.LookbackDays)),
		LabelStyle.Render("7d traffic:"),
		ValueStyle.Render(humanBytes(weekTraffic)),
		LabelStyle.Render("7d conns:"),
		ValueStyle.Render(fmt.Sprintf("%d", weekConns)),
	)

	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("🌐 Overview") + "\n" + content)
}

func (d *Dashboard) renderUsersSection() string {
	if len(d.report.Meta.Users) == 0 {
		content := DimStyle.Render("No users yet")
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("👤 Users (7 days)") + "\n" + content)
	}

	users := make([]string, len(d.report.Meta.Users))
	copy(users, d.report.Meta.Users)
	sort.Slice(users, func(i, j int) bool {
		return d.report.Users[users[i]].Sum7TrafficBytes > d.report.Users[users[j]].Sum7TrafficBytes
	})

	var max int64 = 1
	for _, u := range users {
		if s := d.report.Users[u].Sum7TrafficBytes; s > max {
			max = s
		}
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%-16s %-12s %-8s %s", "User", "Traffic", "Conns", ""))
	rows = append(rows, strings.Repeat("─", 58))

	maxUsers := 15
	if len(users) < maxUsers {
		maxUsers = len(users)
	}
	for i := 0; i < maxUsers; i++ {
		u := d.report.Users[users[i]]
		name := users[i]
		if len(name) > 14 {
			name = name[:11] + "..."
		}
		marker := "  "
		if u.Anomaly {
			marker = WarningStyle.Render("⚠ ")
		}
		rows = append(rows, fmt.Sprintf("%-16s %-12s %-8d %s %s",
			name,
			humanBytes(u.Sum7TrafficBytes),
			u.Sum7Conns,
			RenderBar(int(u.Sum7TrafficBytes/1024), int(max/1024), 14),
			marker))
	}
	if len(users) > maxUsers {
		rows = append(rows, DimStyle.Render(fmt.Sprintf("... and %d more", len(users)-maxUsers)))
	}

	content := strings.Join(rows, "\n")
	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("👤 Users (7 days)") + "\n" + content)
}

func (d *Dashboard) renderDomainsSection() string {
	top := d.report.Global.TopDomainsTraffic
	if len(top) == 0 {
		content := DimStyle.Render("No destinations recorded this week")
		return SectionStyle.Width(d.sectionWidth()).Render(
			SectionTitleStyle.Render("🔗 Top Destinations") + "\n" + content)
	}

	var rows []string
	rows = append(rows, fmt.Sprintf("%-28s %-12s %s", "Domain", "Traffic", "Share"))
	rows = append(rows, strings.Repeat("─", 50))
	for _, e := range top {
		domain := e.Domain
		if len(domain) > 26 {
			domain = domain[:23] + "..."
		}
		rows = append(rows, fmt.Sprintf("%-28s %-12s %.1f%%",
			domain, humanBytes(e.Value), e.SharePct))
	}

	content := strings.Join(rows, "\n")
	return SectionStyle.Width(d.sectionWidth()).Render(
		SectionTitleStyle.Render("🔗 Top Destinations") + "\n" + content)
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

// humanBytes formats a byte count with a binary-ish decimal unit ladder.
func humanBytes(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
