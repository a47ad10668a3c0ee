package main

import (
	"github.com/spf13/cobra"

	"github.com/user/xrayboard/internal/tui"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/xray"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the terminal dashboard",
	Long: `Launch an interactive terminal dashboard showing usage data.

The dashboard shows:
- Global traffic and connection totals
- Per-user weekly usage with anomaly markers
- Top destination domains

Press 'r' to refresh, 'q' to quit.`,
	RunE: runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	manager := xray.NewManager(cfg)
	agg := usage.NewAggregator(cfg.UsageDir, manager, cfg.AnomalyThresholdBytes())

	app := tui.NewApp(agg, cfg)
	return app.Run()
}
