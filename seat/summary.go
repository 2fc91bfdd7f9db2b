package seat

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TierSummary aggregates one pricing tier
type TierSummary struct {
	TierCode       string          `json:"tier_code"`
	Total          int             `json:"total"`
	Available      int             `json:"available"`
	AvailableValue decimal.Decimal `json:"available_value"`
}

// Summary is a compact view of a seat snapshot used by publishers and the CLI
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	Tiers    []TierSummary  `json:"tiers"`
}

// Summarize counts records per status and per tier. Tiers are sorted by code;
// records without a tier are grouped under the empty code.
func Summarize(records []Record) Summary {
	s := Summary{
		Total:    len(records),
		ByStatus: make(map[Status]int, len(Statuses)),
	}
	for _, st := range Statuses {
		s.ByStatus[st] = 0
	}

	tiers := make(map[string]*TierSummary)
	for _, r := range records {
		s.ByStatus[r.Status]++

		ts, ok := tiers[r.TierCode]
		if !ok {
			ts = &TierSummary{TierCode: r.TierCode, AvailableValue: decimal.Zero}
			tiers[r.TierCode] = ts
		}
		ts.Total++
		if r.Status == StatusAvailable {
			ts.Available++
			ts.AvailableValue = ts.AvailableValue.Add(r.Price)
		}
	}

	s.Tiers = make([]TierSummary, 0, len(tiers))
	for _, ts := range tiers {
		s.Tiers = append(s.Tiers, *ts)
	}
	sort.Slice(s.Tiers, func(i, j int) bool {
		return s.Tiers[i].TierCode < s.Tiers[j].TierCode
	})
	return s
}

// Available returns the number of available seats
func (s Summary) Available() int {
	return s.ByStatus[StatusAvailable]
}
