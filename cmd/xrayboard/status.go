package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/user/xrayboard/internal/report"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/xray"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show proxy and collector status",
	Long:  "Show the proxy service state, provisioned clients and collector data coverage.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("86"))

	activeStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")).
		Bold(true)

	downStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	manager := xray.NewManager(cfg)

	fmt.Println(titleStyle.Render("Xrayboard Status"))
	fmt.Println()

	// Proxy service
	st := manager.Status(context.Background(), cfg.XrayService)
	fmt.Print(labelStyle.Render("Service: "))
	if st.Active {
		fmt.Println(activeStyle.Render(fmt.Sprintf("%s (%s)", st.Service, st.State)))
	} else {
		fmt.Println(downStyle.Render(fmt.Sprintf("%s (%s)", st.Service, st.State)))
	}

	// Provisioned clients
	if clients, err := manager.ListClients(); err == nil {
		fmt.Print(labelStyle.Render("Clients: "))
		fmt.Println(valueStyle.Render(fmt.Sprintf("%d", len(clients))))
	} else {
		fmt.Print(labelStyle.Render("Clients: "))
		fmt.Println(downStyle.Render("config unreadable"))
	}

	// Collector data coverage
	agg := usage.NewAggregator(cfg.UsageDir, nil, cfg.AnomalyThresholdBytes())
	dates, err := agg.ScanDates()
	fmt.Println()
	fmt.Println(titleStyle.Render("Collector Data"))
	if err != nil {
		fmt.Printf("  %s %s\n",
			labelStyle.Render("Data dir:"),
			downStyle.Render(cfg.UsageDir+" (unreadable)"))
		return nil
	}
	fmt.Printf("  %s %s\n",
		labelStyle.Render("Data dir:"),
		valueStyle.Render(cfg.UsageDir))
	fmt.Printf("  %s %s\n",
		labelStyle.Render("Days:"),
		valueStyle.Render(fmt.Sprintf("%d", len(dates))))
	if len(dates) > 0 {
		fmt.Printf("  %s %s\n",
			labelStyle.Render("Latest:"),
			valueStyle.Render(dates[len(dates)-1]))

		if end, err := agg.ResolveEndDate(""); err == nil {
			if rep, err := agg.Aggregate(end, 7); err == nil {
				var total int64
				for _, v := range rep.Global.DailyTrafficBytes {
					total += v
				}
				fmt.Printf("  %s %s\n",
					labelStyle.Render("7d traffic:"),
					valueStyle.Render(report.HumanBytes(total)))
			}
		}
	}

	return nil
}
