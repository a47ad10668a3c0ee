package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/xrayboard/internal/jobs"
	"github.com/user/xrayboard/internal/storage"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/web"
	"github.com/user/xrayboard/internal/xray"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long: `Start the JSON API behind the usage dashboard.

The server provides:
- /api/dashboard with conditional requests (ETag / If-None-Match)
- Daily summaries and per-user destination rankings
- VLESS client provisioning, share links and service control

Examples:
  xrayboard serve
  xrayboard serve --port 8090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind address (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Server port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveHost != "" {
		cfg.WebHost = serveHost
	}
	if servePort != 0 {
		cfg.WebPort = servePort
	}

	db, err := storage.Initialize(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	manager := xray.NewManager(cfg)
	agg := usage.NewAggregator(cfg.UsageDir, manager, cfg.AnomalyThresholdBytes())
	cache := usage.NewReportCache(agg, cfg.CacheTTL)
	events := storage.NewEventStorage(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := jobs.NewScheduler(ctx)
	sched.AddJob(jobs.NewCachePrewarm(cache, cfg.DefaultLookbackDays, cfg.CacheTTL))
	sched.AddJob(jobs.NewEventPrune(events))
	go sched.Run()

	fmt.Printf("Starting server on http://%s:%d\n", cfg.WebHost, cfg.WebPort)
	fmt.Println("Press Ctrl+C to stop")

	srv := web.NewServer(cfg, cache, agg, manager, events)
	return srv.Start()
}
