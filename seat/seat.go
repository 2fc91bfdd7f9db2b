// Package seat holds the per-event seat inventory record served by the
// ticketing API and the error taxonomy of the remote seat query.
package seat

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Status is the sale state of a seat for one event
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusSold      Status = "SOLD"
	StatusBlocked   Status = "BLOCKED"
)

// Statuses lists every known status in display order
var Statuses = []Status{StatusAvailable, StatusReserved, StatusSold, StatusBlocked}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSold, StatusBlocked:
		return true
	}
	return false
}

// UnmarshalJSON rejects statuses outside the fixed set
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	st := Status(raw)
	if !st.Valid() {
		return ErrUnknownStatus(raw)
	}
	*s = st
	return nil
}

// Record is one seat of an event's inventory. Records are immutable once
// fetched; a refresh replaces the whole slice.
type Record struct {
	EventSeatID string          `json:"eventSeatId"`
	SeatID      string          `json:"seatId"`
	Label       string          `json:"label"`
	Row         string          `json:"row,omitempty"`
	Number      int             `json:"number,omitempty"`
	Type        string          `json:"type,omitempty"`
	Status      Status          `json:"status"`
	TierCode    string          `json:"tierCode,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

// Position renders the row/column position, e.g. "B-12"
func (r Record) Position() string {
	switch {
	case r.Row != "" && r.Number > 0:
		return fmt.Sprintf("%s-%d", r.Row, r.Number)
	case r.Row != "":
		return r.Row
	case r.Number > 0:
		return fmt.Sprintf("%d", r.Number)
	}
	return r.Label
}
