package main

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/ch"
	"github.com/dailyyoga/seatsync/seat"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name string
		snap cache.Snapshot
		want string
	}{
		{"idle", cache.Snapshot{}, "idle"},
		{"loading", cache.Snapshot{Loading: true, Err: errors.New("old")}, "loading"},
		{"error", cache.Snapshot{Err: errors.New("boom"), UpdatedAt: now}, "error: boom"},
		{"rate limited", cache.Snapshot{Err: &seat.RateLimitedError{}, RateLimitedUntil: now.Add(15 * time.Second)}, "rate limited, next request in 15s"},
		{"cool-down over", cache.Snapshot{UpdatedAt: now, RateLimitedUntil: now.Add(-time.Second)}, "updated "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusLine(tt.snap, now); !strings.HasPrefix(got, tt.want) {
				t.Errorf("statusLine() = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestRenderSnapshot(t *testing.T) {
	snap := cache.Snapshot{
		Key: "evt-1",
		Seats: []seat.Record{
			{SeatID: "s-1", Status: seat.StatusAvailable, TierCode: "VIP", Price: decimal.RequireFromString("120.50")},
			{SeatID: "s-2", Status: seat.StatusAvailable, TierCode: "VIP", Price: decimal.RequireFromString("120.50")},
			{SeatID: "s-3", Status: seat.StatusSold, TierCode: "STD", Price: decimal.NewFromInt(40)},
		},
		UpdatedAt: now,
	}

	var buf bytes.Buffer
	if err := renderSnapshot(&buf, snap, now); err != nil {
		t.Fatalf("renderSnapshot() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"evt-1", "VIP", "STD", "241.00", "total 3  available 2  reserved 0  sold 1  blocked 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	rows := []ch.FetchRow{
		{EventID: "evt-1", FinishedAt: now, Outcome: ch.OutcomeOK, StatusCode: 200, DurationMs: 120, SeatsTotal: 3, SeatsAvailable: 2},
		{EventID: "evt-1", FinishedAt: now.Add(-time.Minute), Outcome: ch.OutcomeRateLimited, StatusCode: 429, Error: "seat: rate limited"},
	}
	var buf bytes.Buffer
	if err := renderHistory(&buf, rows); err != nil {
		t.Fatalf("renderHistory() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"rate_limited", "429", "120ms", "2 fetches"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Version: dev") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWatchRequiresEventID(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch"})
	if err := cmd.Execute(); err == nil {
		t.Error("watch without an event id should fail")
	}
}

func TestHistoryRequiresClickHouse(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"history", "evt-1"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "clickhouse is not configured") {
		t.Errorf("Execute() error = %v", err)
	}
}
