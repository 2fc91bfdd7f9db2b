// Package ch records seat fetch history in ClickHouse. Every outcome of the
// seat cache becomes one row of the fetch log, batched through an
// unbounded queue and flushed by size or interval.
package ch

import (
	"context"
	"errors"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/seat"
)

// Outcome classes stored in the outcome column
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeServer      = "server_error"
	OutcomeNetwork     = "network_error"
	OutcomeOther       = "error"
)

// FetchRow is one row of the fetch log table
type FetchRow struct {
	EventID          string    `ch:"event_id"`
	StartedAt        time.Time `ch:"started_at"`
	FinishedAt       time.Time `ch:"finished_at"`
	DurationMs       uint32    `ch:"duration_ms"`
	Outcome          string    `ch:"outcome"`
	StatusCode       uint16    `ch:"status_code"`
	SeatsTotal       uint32    `ch:"seats_total"`
	SeatsAvailable   uint32    `ch:"seats_available"`
	RateLimitedUntil time.Time `ch:"rate_limited_until"`
	Error            string    `ch:"error"`
}

// NewFetchRow converts a cache outcome into a log row
func NewFetchRow(o cache.Outcome) FetchRow {
	row := FetchRow{
		EventID:          o.Key,
		StartedAt:        o.StartedAt,
		FinishedAt:       o.FinishedAt,
		RateLimitedUntil: o.RateLimitedUntil,
		Outcome:          classify(o.Err),
		StatusCode:       uint16(seat.StatusCode(o.Err)),
	}
	if row.RateLimitedUntil.IsZero() {
		row.RateLimitedUntil = time.Unix(0, 0).UTC()
	}
	if d := o.FinishedAt.Sub(o.StartedAt); d > 0 {
		row.DurationMs = uint32(d.Milliseconds())
	}
	if o.Err != nil {
		row.Error = o.Err.Error()
		return row
	}
	s := seat.Summarize(o.Seats)
	row.SeatsTotal = uint32(s.Total)
	row.SeatsAvailable = uint32(s.Available())
	row.StatusCode = 200
	return row
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, seat.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, seat.ErrServer):
		return OutcomeServer
	case errors.Is(err, seat.ErrNetwork):
		return OutcomeNetwork
	}
	return OutcomeOther
}

// Inserter writes a batch of rows
type Inserter interface {
	InsertFetchRows(ctx context.Context, rows []FetchRow) error
}

// Client is the ClickHouse connection used by the fetch log
type Client interface {
	Inserter
	// EnsureTable creates the fetch log table when it does not exist
	EnsureTable(ctx context.Context) error
	// RecentFetches returns the latest rows of one event, newest first
	RecentFetches(ctx context.Context, eventID string, limit int) ([]FetchRow, error)
	Close() error
}
