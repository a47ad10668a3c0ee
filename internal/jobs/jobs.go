package jobs

import (
	"context"
	"time"

	"github.com/user/xrayboard/internal/storage"
	"github.com/user/xrayboard/internal/usage"
	"github.com/user/xrayboard/internal/util"
)

const eventRetention = 90 * 24 * time.Hour

// NewCachePrewarm keeps the default dashboard window hot so the first
// request after a quiet period does not pay the aggregation cost.
func NewCachePrewarm(cache *usage.ReportCache, lookbackDays int, interval time.Duration) *Job {
	return &Job{
		Name:     "cache_prewarm",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := cache.GetOrCompute(lookbackDays)
			return err
		},
	}
}

// NewEventPrune trims the audit log down to the retention window once a
// day.
func NewEventPrune(events *storage.EventStorage) *Job {
	return &Job{
		Name:     "event_prune",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			n, err := events.Prune(eventRetention)
			if err != nil {
				return err
			}
			if n > 0 {
				util.Info("Pruned %d old events", n)
			}
			return nil
		},
	}
}
