package seat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRecord_UnmarshalJSON(t *testing.T) {
	body := `[
		{"eventSeatId":"es-1","seatId":"s-1","label":"A1","row":"A","number":1,"status":"AVAILABLE","tierCode":"VIP","price":"120.50"},
		{"eventSeatId":"es-2","seatId":"s-2","label":"A2","row":"A","number":2,"status":"SOLD","tierCode":"VIP","price":120.5}
	]`

	var records []Record
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Status != StatusAvailable || records[1].Status != StatusSold {
		t.Errorf("unexpected statuses: %s, %s", records[0].Status, records[1].Status)
	}
	if !records[0].Price.Equal(decimal.RequireFromString("120.5")) {
		t.Errorf("unexpected price %s", records[0].Price)
	}
	if records[1].Position() != "A-2" {
		t.Errorf("unexpected position %q", records[1].Position())
	}
}

func TestStatus_UnmarshalJSON_Unknown(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"eventSeatId":"es-1","status":"HELD"}`), &r)
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestRecord_Position(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{Row: "C", Number: 7}, "C-7"},
		{Record{Row: "Balcony"}, "Balcony"},
		{Record{Number: 12}, "12"},
		{Record{Label: "Table 4"}, "Table 4"},
	}
	for _, tt := range tests {
		if got := tt.rec.Position(); got != tt.want {
			t.Errorf("Position() = %q, want %q", got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Status: StatusAvailable, TierCode: "VIP", Price: decimal.NewFromInt(100)},
		{Status: StatusAvailable, TierCode: "VIP", Price: decimal.NewFromInt(100)},
		{Status: StatusSold, TierCode: "VIP", Price: decimal.NewFromInt(100)},
		{Status: StatusReserved, TierCode: "GOLD", Price: decimal.NewFromInt(60)},
		{Status: StatusAvailable, TierCode: "GOLD", Price: decimal.RequireFromString("59.99")},
		{Status: StatusBlocked},
	}

	s := Summarize(records)
	if s.Total != 6 {
		t.Errorf("expected total 6, got %d", s.Total)
	}
	if s.Available() != 3 || s.ByStatus[StatusSold] != 1 || s.ByStatus[StatusReserved] != 1 || s.ByStatus[StatusBlocked] != 1 {
		t.Errorf("unexpected status counts: %v", s.ByStatus)
	}
	if len(s.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(s.Tiers))
	}
	if s.Tiers[0].TierCode != "" || s.Tiers[1].TierCode != "GOLD" || s.Tiers[2].TierCode != "VIP" {
		t.Errorf("tiers not sorted: %+v", s.Tiers)
	}
	if !s.Tiers[2].AvailableValue.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected VIP value %s", s.Tiers[2].AvailableValue)
	}
	if !s.Tiers[1].AvailableValue.Equal(decimal.RequireFromString("59.99")) {
		t.Errorf("unexpected GOLD value %s", s.Tiers[1].AvailableValue)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || len(s.Tiers) != 0 {
		t.Errorf("unexpected summary %+v", s)
	}
	for _, st := range Statuses {
		if n, ok := s.ByStatus[st]; !ok || n != 0 {
			t.Errorf("expected zero entry for %s", st)
		}
	}
}

func TestErrors_Taxonomy(t *testing.T) {
	netErr := &NetworkError{Err: errors.New("connection refused")}
	srvErr := &ServerError{Status: http.StatusBadGateway, Message: "upstream down"}
	rlErr := &RateLimitedError{RetryAfter: 30 * time.Second}

	if !errors.Is(netErr, ErrNetwork) || errors.Is(netErr, ErrServer) {
		t.Error("network error matched wrong sentinel")
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", srvErr), ErrServer) {
		t.Error("wrapped server error did not match ErrServer")
	}
	if !errors.Is(rlErr, ErrRateLimited) {
		t.Error("rate limited error did not match ErrRateLimited")
	}

	if StatusCode(netErr) != 0 || StatusCode(srvErr) != http.StatusBadGateway || StatusCode(rlErr) != http.StatusTooManyRequests {
		t.Error("unexpected status codes")
	}

	if d, ok := RetryAfter(rlErr); !ok || d != 30*time.Second {
		t.Errorf("RetryAfter() = %v, %v", d, ok)
	}
	if _, ok := RetryAfter(srvErr); ok {
		t.Error("server error reported as rate limited")
	}
}

func TestClassify(t *testing.T) {
	srvErr := &ServerError{Status: 500}
	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
	if Classify(srvErr) != srvErr {
		t.Error("typed error should pass through")
	}
	if err := Classify(context.Canceled); err != context.Canceled {
		t.Errorf("context error should pass through, got %v", err)
	}
	err := Classify(errors.New("eof"))
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("unknown error should classify as network, got %v", err)
	}
}

func TestRateLimitedError_Message(t *testing.T) {
	until := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	local := &RateLimitedError{Local: true, Until: until}
	if local.Error() != "seat: rate limited until 2026-01-01T00:00:30Z" {
		t.Errorf("unexpected message %q", local.Error())
	}
	if (&RateLimitedError{}).Error() != "seat: rate limited" {
		t.Error("unexpected bare message")
	}
}
