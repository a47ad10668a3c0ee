package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/xrayboard/internal/report"
	"github.com/user/xrayboard/internal/usage"
)

var (
	reportDays   int
	reportTo     string
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a usage report",
	Long: `Generate a usage report from the collector's CSV files.

Examples:
  xrayboard report
  xrayboard report --days 31 --format json
  xrayboard report --to 2024-01-14 -o report.md`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 0,
		"Lookback window in days (default from config)")
	reportCmd.Flags().StringVar(&reportTo, "to", "",
		"Report end date YYYY-MM-DD (default: latest day with data)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "markdown",
		"Output format (markdown, json)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "",
		"Output file path (default: stdout)")
}

func runReport(cmd *cobra.Command, args []string) error {
	agg := usage.NewAggregator(cfg.UsageDir, nil, cfg.AnomalyThresholdBytes())
	gen := report.NewGenerator(agg, cfg)

	data, err := gen.Generate(report.Options{
		EndDate:      reportTo,
		LookbackDays: reportDays,
	})
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	var content string
	switch reportFormat {
	case "json":
		content, err = report.FormatJSON(data)
		if err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
	case "markdown":
		content = report.FormatMarkdown(data)
	default:
		return fmt.Errorf("unknown format: %s", reportFormat)
	}

	if reportOutput == "" || reportOutput == "-" {
		fmt.Println(content)
		return nil
	}
	if err := os.WriteFile(reportOutput, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Report saved to: %s\n", reportOutput)
	return nil
}
