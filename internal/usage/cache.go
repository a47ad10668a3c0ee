package usage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/user/xrayboard/internal/model"
)

// DefaultCacheTTL bounds how stale a served dashboard may be.
const DefaultCacheTTL = 15 * time.Second

// cacheSlots caps how many lookback lengths are memoized at once.
const cacheSlots = 8

// CachedReport is an aggregation result together with its canonical JSON
// encoding and content hash. Body is what HTTP handlers write, so repeated
// hits are byte-identical.
type CachedReport struct {
	Report *model.DashboardReport
	Body   []byte
	ETag   string
}

// ReportCache memoizes aggregator output per lookback length with a short
// TTL. The mutex covers the whole check-compute-store sequence so
// concurrent requests do not recompute the same window in parallel.
type ReportCache struct {
	mu  sync.Mutex
	agg *Aggregator
	lru *expirable.LRU[int, *CachedReport]
}

// NewReportCache builds a cache over an aggregator. A non-positive TTL
// falls back to the 15 second default.
func NewReportCache(agg *Aggregator, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ReportCache{
		agg: agg,
		lru: expirable.NewLRU[int, *CachedReport](cacheSlots, nil, ttl),
	}
}

// GetOrCompute returns the cached report for a lookback length, computing
// and storing it on miss or expiry. The cache always reflects the latest
// available end date; requests pinned to a historical end date should use
// Compute instead.
func (c *ReportCache) GetOrCompute(lookbackDays int) (*CachedReport, error) {
	lookbackDays, _ = ClampLookback(lookbackDays)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.lru.Get(lookbackDays); ok {
		return entry, nil
	}

	end, err := c.agg.ResolveEndDate("")
	if err != nil {
		return nil, err
	}
	entry, err := c.compute(end, lookbackDays)
	if err != nil {
		return nil, err
	}
	c.lru.Add(lookbackDays, entry)
	return entry, nil
}

// Compute aggregates without touching the cache, for explicit historical
// end dates. The content hash is still produced for conditional requests.
func (c *ReportCache) Compute(end time.Time, lookbackDays int) (*CachedReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compute(end, lookbackDays)
}

func (c *ReportCache) compute(end time.Time, lookbackDays int) (*CachedReport, error) {
	report, err := c.agg.Aggregate(end, lookbackDays)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(body)
	return &CachedReport{
		Report: report,
		Body:   body,
		ETag:   hex.EncodeToString(sum[:]),
	}, nil
}
