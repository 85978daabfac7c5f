package kpi

import (
	"dealer_crm_backend/internal/policy"
)

// Status is a traffic light for one guarantee.
type Status string

const (
	StatusMet     Status = "met"
	StatusOnTrack Status = "on_track"
	StatusAtRisk  Status = "at_risk"
)

const (
	recommendationAtRisk = "Focus coaching on at-risk KPIs before the next guarantee review."
	recommendationOnPace = "Program is on pace with guarantee targets; keep current cadence."
)

// ScorecardEntry compares one KPI to its guarantee.
type ScorecardEntry struct {
	Metric      string           `json:"metric"`
	Label       string           `json:"label"`
	Baseline    float64          `json:"baseline"`
	Current     float64          `json:"current"`
	Delta       float64          `json:"delta"`
	TargetDelta float64          `json:"target_delta"`
	Direction   policy.Direction `json:"direction"`
	Status      Status           `json:"status"`
}

// Scorecard is the program-level guarantee view.
type Scorecard struct {
	Entries        []ScorecardEntry `json:"entries"`
	AtRiskCount    int              `json:"at_risk_count"`
	Recommendation string           `json:"recommendation"`
}

// BuildScorecard scores metrics against every configured guarantee. The delta
// is signed so that improvement is positive in both directions.
func BuildScorecard(p policy.KPIPolicy, m Metrics) Scorecard {
	card := Scorecard{Entries: make([]ScorecardEntry, 0, len(p.Guarantees))}

	for _, g := range p.Guarantees {
		current, ok := m.Value(g.Metric)
		if !ok {
			continue
		}
		delta := current - g.Baseline
		if g.Direction == policy.DirectionDown {
			delta = g.Baseline - current
		}
		delta = round1(delta)

		entry := ScorecardEntry{
			Metric:      g.Metric,
			Label:       g.Label,
			Baseline:    g.Baseline,
			Current:     current,
			Delta:       delta,
			TargetDelta: g.TargetDelta,
			Direction:   g.Direction,
			Status:      statusFor(delta, g.TargetDelta, p.OnTrackFraction),
		}
		if entry.Status == StatusAtRisk {
			card.AtRiskCount++
		}
		card.Entries = append(card.Entries, entry)
	}

	card.Recommendation = recommendationOnPace
	if card.AtRiskCount > 0 {
		card.Recommendation = recommendationAtRisk
	}
	return card
}

func statusFor(delta, target, onTrackFraction float64) Status {
	switch {
	case delta >= target:
		return StatusMet
	case delta >= target*onTrackFraction:
		return StatusOnTrack
	default:
		return StatusAtRisk
	}
}
