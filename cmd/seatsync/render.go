package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/ch"
	"github.com/dailyyoga/seatsync/seat"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// statusLine summarizes the state of a snapshot in one line
func statusLine(snap cache.Snapshot, now time.Time) string {
	switch {
	case snap.Loading:
		return yellow("loading")
	case !snap.RateLimitedUntil.IsZero() && now.Before(snap.RateLimitedUntil):
		wait := snap.RateLimitedUntil.Sub(now).Round(time.Second)
		return red(fmt.Sprintf("rate limited, next request in %s", wait))
	case snap.Err != nil:
		return red("error: " + snap.Err.Error())
	case snap.UpdatedAt.IsZero():
		return "idle"
	}
	return green("updated " + snap.UpdatedAt.Local().Format(time.TimeOnly))
}

func renderSnapshot(w io.Writer, snap cache.Snapshot, now time.Time) error {
	summary := seat.Summarize(snap.Seats)
	if _, err := fmt.Fprintf(w, "\n%s  %s\n", snap.Key, statusLine(snap, now)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Tier", "Seats", "Available", "Available Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := make([][]string, 0, len(summary.Tiers))
	for _, t := range summary.Tiers {
		code := t.TierCode
		if code == "" {
			code = "-"
		}
		data = append(data, []string{
			code,
			strconv.Itoa(t.Total),
			strconv.Itoa(t.Available),
			t.AvailableValue.StringFixed(2),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "total %d  available %d  reserved %d  sold %d  blocked %d\n",
		summary.Total,
		summary.ByStatus[seat.StatusAvailable],
		summary.ByStatus[seat.StatusReserved],
		summary.ByStatus[seat.StatusSold],
		summary.ByStatus[seat.StatusBlocked],
	)
	return err
}

func renderHistory(w io.Writer, rows []ch.FetchRow) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Finished", "Outcome", "Status", "Duration", "Seats", "Available", "Error"})

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		outcome := r.Outcome
		switch r.Outcome {
		case ch.OutcomeOK:
			outcome = green(outcome)
		case ch.OutcomeRateLimited:
			outcome = yellow(outcome)
		default:
			outcome = red(outcome)
		}
		status := "-"
		if r.StatusCode != 0 {
			status = strconv.Itoa(int(r.StatusCode))
		}
		data = append(data, []string{
			r.FinishedAt.Local().Format(time.DateTime),
			outcome,
			status,
			(time.Duration(r.DurationMs) * time.Millisecond).String(),
			strconv.Itoa(int(r.SeatsTotal)),
			strconv.Itoa(int(r.SeatsAvailable)),
			r.Error,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d fetches\n", len(rows))
	return err
}
