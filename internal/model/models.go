// Package model defines core data structures for xrayboard.
package model

import "time"

// TopDomainEntry is one row of a top-N domain ranking. SharePct is the
// entry's share of the full window total, not just of the shown entries.
type TopDomainEntry struct {
	Domain   string  `json:"domain"`
	Value    int64   `json:"value"`
	SharePct float64 `json:"share_pct"`
}

// ReportMeta describes the window a DashboardReport was computed over.
// Dates are YYYY-MM-DD strings, oldest first.
type ReportMeta struct {
	EndDate      string   `json:"to"`
	LookbackDays int      `json:"lookback_days"`
	Days         []string `json:"calendar_days"`
	CurrentWeek  []string `json:"current_week_days"`
	PreviousWeek []string `json:"previous_week_days"`
	Users        []string `json:"users"`
}

// GlobalReport holds the server-wide series and rankings. Daily and
// cumulative arrays span the full lookback window; prev arrays are always
// 7 entries (zeros when the lookback is shorter than 14 days).
type GlobalReport struct {
	DailyTrafficBytes     []int64          `json:"daily_traffic_bytes"`
	DailyConns            []int64          `json:"daily_conns"`
	CumulativeTraffic     []int64          `json:"cumulative_traffic_bytes"`
	CumulativeConns       []int64          `json:"cumulative_conns"`
	PrevDailyTrafficBytes []int64          `json:"prev_daily_traffic_bytes"`
	PrevDailyConns        []int64          `json:"prev_daily_conns"`
	TopDomainsTraffic     []TopDomainEntry `json:"top_domains_traffic"`
	TopDomainsConns       []TopDomainEntry `json:"top_domains_conns"`
}

// UserReport is the per-user view over the current and previous 7-day
// windows.
type UserReport struct {
	DailyTrafficBytes     []int64          `json:"daily_traffic_bytes"`
	DailyConns            []int64          `json:"daily_conns"`
	PrevDailyTrafficBytes []int64          `json:"prev_daily_traffic_bytes"`
	PrevDailyConns        []int64          `json:"prev_daily_conns"`
	Sum7TrafficBytes      int64            `json:"sum7_traffic_bytes"`
	Sum7Conns             int64            `json:"sum7_conns"`
	SumPrev7TrafficBytes  int64            `json:"sum_prev7_traffic_bytes"`
	SumPrev7Conns         int64            `json:"sum_prev7_conns"`
	TopDomainsTraffic     []TopDomainEntry `json:"top_domains_traffic"`
	TopDomainsConns       []TopDomainEntry `json:"top_domains_conns"`
	Anomaly               bool             `json:"anomaly"`
}

// DashboardReport is the full aggregation result for one request. It
// carries no timestamps so that identical inputs serialize identically.
type DashboardReport struct {
	Meta   ReportMeta             `json:"meta"`
	Global GlobalReport           `json:"global"`
	Users  map[string]*UserReport `json:"users"`
}

// SummaryRow is the legacy flattened per-user-per-day value kept for the
// old UI.
type SummaryRow struct {
	Date  string `json:"date"`
	User  string `json:"user"`
	Value int64  `json:"value"`
}

// SummaryPack wraps legacy summary rows with their axis.
type SummaryPack struct {
	Days  []string     `json:"days"`
	Users []string     `json:"users"`
	Rows  []SummaryRow `json:"data"`
}

// Client is one proxy credential from the Xray config.
type Client struct {
	Email string `json:"email"`
	ID    string `json:"id"`
	Flow  string `json:"flow,omitempty"`
}

// Event is one admin audit record.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ServiceStatus reports the proxy service state.
type ServiceStatus struct {
	Service string `json:"service"`
	Active  bool   `json:"active"`
	State   string `json:"state"`
}
