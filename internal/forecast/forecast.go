// Package forecast computes probability-weighted pipeline value for the next
// seven days and the current and next calendar months.
package forecast

import (
	"math"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
)

// Window keys.
const (
	WindowNext7Days = "next_7_days"
	WindowThisMonth = "this_month"
	WindowNextMonth = "next_month"
)

// Window is one forecast bucket. Start is inclusive, End exclusive.
type Window struct {
	Key       string    `json:"key"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Value     float64   `json:"value"`
	DealCount int       `json:"deal_count"`
}

// Forecast is the full weighted view.
type Forecast struct {
	Windows     []Window  `json:"windows"`
	GeneratedAt time.Time `json:"generated_at"`
}

type bucket struct {
	Window
	weights map[domain.Stage]float64
	sum     float64
}

// Compute sums weighted lead value per window. Calendar months follow loc.
// The seven-day window uses the near-term weights, which leave out
// financing_review; the monthly windows include it.
func Compute(p policy.ForecastPolicy, loc *time.Location, now time.Time, leads []domain.Lead) Forecast {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	nextMonth := monthStart.AddDate(0, 1, 0)

	buckets := []*bucket{
		{Window: Window{Key: WindowNext7Days, Start: now, End: now.AddDate(0, 0, p.NearTermDays)}, weights: p.NearTermWeight},
		{Window: Window{Key: WindowThisMonth, Start: monthStart, End: nextMonth}, weights: p.MonthlyWeight},
		{Window: Window{Key: WindowNextMonth, Start: nextMonth, End: nextMonth.AddDate(0, 1, 0)}, weights: p.MonthlyWeight},
	}

	for _, lead := range leads {
		ref := ReferenceDate(lead)
		value := lead.ExpectedValue()
		for _, b := range buckets {
			weight, ok := b.weights[lead.Status]
			if !ok || weight == 0 {
				continue
			}
			if ref.Before(b.Start) || !ref.Before(b.End) {
				continue
			}
			b.sum += value * weight
			b.DealCount++
		}
	}

	out := Forecast{Windows: make([]Window, 0, len(buckets)), GeneratedAt: now}
	for _, b := range buckets {
		b.Value = math.Round(b.sum)
		out.Windows = append(out.Windows, b.Window)
	}
	return out
}

// ReferenceDate is closed_at, else updated_at, else created_at.
func ReferenceDate(lead domain.Lead) time.Time {
	if lead.ClosedAt != nil {
		return *lead.ClosedAt
	}
	if !lead.UpdatedAt.IsZero() {
		return lead.UpdatedAt
	}
	return lead.CreatedAt
}
