// Package kpi aggregates operational metrics from a snapshot and scores them
// against the guarantee baselines. All functions are total over empty input.
package kpi

import (
	"math"
	"sort"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
)

// Metrics is a point-in-time KPI view. It is never stored.
type Metrics struct {
	TimeToFirstResponse float64   `json:"time_to_first_response"`
	ContactRate         float64   `json:"contact_rate"`
	AppointmentSetRate  float64   `json:"appointment_set_rate"`
	ShowRate            float64   `json:"show_rate"`
	SoldRate            float64   `json:"sold_rate"`
	FinanceCompletion   float64   `json:"finance_completion"`
	AvgDaysToClose      float64   `json:"avg_days_to_close"`
	LeadCount           int       `json:"lead_count"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// Value returns the metric named by one of the policy.Metric* keys.
func (m Metrics) Value(metric string) (float64, bool) {
	switch metric {
	case policy.MetricResponseTime:
		return m.TimeToFirstResponse, true
	case policy.MetricContactRate:
		return m.ContactRate, true
	case policy.MetricAppointmentSetRate:
		return m.AppointmentSetRate, true
	case policy.MetricShowRate:
		return m.ShowRate, true
	case policy.MetricSoldRate:
		return m.SoldRate, true
	case policy.MetricFinanceCompletion:
		return m.FinanceCompletion, true
	default:
		return 0, false
	}
}

var appointmentSetStages = map[domain.Stage]bool{
	domain.StageAppointmentSet:    true,
	domain.StageAppointmentShowed: true,
	domain.StageNegotiating:       true,
	domain.StageFinancingReview:   true,
	domain.StageClosedWon:         true,
}

// Compute derives every metric from snap at now.
func Compute(now time.Time, snap domain.Snapshot) Metrics {
	oppByLead := snap.OpportunityByLead()

	var (
		responseMinutes []float64
		contacted       int
		appointmentSet  int
		sold            int
		closeDays       []float64
	)
	for _, lead := range snap.Leads {
		if lead.FirstContactAt != nil {
			contacted++
			responseMinutes = append(responseMinutes, lead.FirstContactAt.Sub(lead.CreatedAt).Minutes())
		}

		stage := lead.Status
		if opp, ok := oppByLead[lead.ID]; ok {
			stage = opp.Stage
		}
		if appointmentSetStages[stage] {
			appointmentSet++
		}

		if lead.Status == domain.StageClosedWon {
			sold++
			closeDays = append(closeDays, now.Sub(lead.CreatedAt).Hours()/24)
		}
	}

	var showed, attended int
	for _, appt := range snap.Appointments {
		switch appt.Status {
		case domain.AppointmentShowed:
			showed++
			attended++
		case domain.AppointmentNoShow:
			attended++
		}
	}

	var completed int
	for _, app := range snap.FinanceApplications {
		if app.Status == domain.FinanceSubmitted || app.Status == domain.FinanceApproved {
			completed++
		}
	}

	total := len(snap.Leads)
	return Metrics{
		TimeToFirstResponse: round1(Median(responseMinutes)),
		ContactRate:         Percent(contacted, total),
		AppointmentSetRate:  Percent(appointmentSet, total),
		ShowRate:            Percent(showed, attended),
		SoldRate:            Percent(sold, total),
		FinanceCompletion:   Percent(completed, len(snap.FinanceApplications)),
		AvgDaysToClose:      round1(mean(closeDays)),
		LeadCount:           total,
		GeneratedAt:         now,
	}
}

// Percent is round(n/d*1000)/10, and 0 when d is 0.
func Percent(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*1000) / 10
}

// Median returns the middle value, averaging the two middle values for an
// even count. Empty input gives 0. values is not modified.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
