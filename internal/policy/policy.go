// Package policy holds the tunable tables that drive the CRM decision engines:
// thresholds, weights, business hours and guarantee baselines. Engines take a
// Policy value and never read package state, so tests can swap policies freely.
package policy

import (
	"time"

	"dealer_crm_backend/internal/domain"
)

// Policy bundles every table the engines consume.
type Policy struct {
	Intake        IntakePolicy   `yaml:"intake" json:"intake"`
	SLA           SLAPolicy      `yaml:"sla" json:"sla"`
	Command       CommandPolicy  `yaml:"command" json:"command"`
	BusinessHours BusinessHours  `yaml:"business_hours" json:"business_hours"`
	KPI           KPIPolicy      `yaml:"kpi" json:"kpi"`
	Forecast      ForecastPolicy `yaml:"forecast" json:"forecast"`
}

// IntakePolicy configures dedup, routing and merge suggestions.
type IntakePolicy struct {
	BaselineScore       int             `yaml:"baseline_score" json:"baseline_score"`
	DefaultLocation     domain.Location `yaml:"default_location" json:"default_location"`
	PageURLKeyword      string          `yaml:"page_url_keyword" json:"page_url_keyword"`
	PageURLLocation     domain.Location `yaml:"page_url_location" json:"page_url_location"`
	NameAndPhoneScore   float64         `yaml:"name_and_phone_confidence" json:"name_and_phone_confidence"`
	NameOnlyScore       float64         `yaml:"name_only_confidence" json:"name_only_confidence"`
	PhoneOnlyScore      float64         `yaml:"phone_only_confidence" json:"phone_only_confidence"`
	MaxMergeSuggestions int             `yaml:"max_merge_suggestions" json:"max_merge_suggestions"`
}

// SLAPolicy configures first-response alerts.
type SLAPolicy struct {
	MinWait      time.Duration `yaml:"min_wait" json:"min_wait"`
	HighAfter    time.Duration `yaml:"high_after" json:"high_after"`
	CriticalAt   time.Duration `yaml:"critical_after" json:"critical_after"`
	AlertCooloff time.Duration `yaml:"alert_cooloff" json:"alert_cooloff"`
}

// CommandPolicy configures action rules and impact scoring.
type CommandPolicy struct {
	SeverityWeights map[string]float64 `yaml:"severity_weights" json:"severity_weights"`
	ValueDivisor    float64            `yaml:"value_divisor" json:"value_divisor"`
	ValueCap        float64            `yaml:"value_cap" json:"value_cap"`
	NearWindow      time.Duration      `yaml:"near_window" json:"near_window"`
	NearWeight      float64            `yaml:"near_weight" json:"near_weight"`
	SoonWindow      time.Duration      `yaml:"soon_window" json:"soon_window"`
	SoonWeight      float64            `yaml:"soon_weight" json:"soon_weight"`

	HotScore         int           `yaml:"hot_score" json:"hot_score"`
	HotContactWithin time.Duration `yaml:"hot_contact_within" json:"hot_contact_within"`
	DealStaleAfter   time.Duration `yaml:"deal_stale_after" json:"deal_stale_after"`
	DealFollowUpDue  time.Duration `yaml:"deal_follow_up_due" json:"deal_follow_up_due"`
	FollowUpAfter    time.Duration `yaml:"follow_up_after" json:"follow_up_after"`
	AgingDays        int           `yaml:"aging_days" json:"aging_days"`
	AgingMediumDays  int           `yaml:"aging_medium_days" json:"aging_medium_days"`
}

// Direction says which way a KPI should move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Guarantee is a fixed reference point for one KPI.
type Guarantee struct {
	Metric      string    `yaml:"metric" json:"metric"`
	Label       string    `yaml:"label" json:"label"`
	Baseline    float64   `yaml:"baseline" json:"baseline"`
	TargetDelta float64   `yaml:"target_delta" json:"target_delta"`
	Direction   Direction `yaml:"direction" json:"direction"`
}

// KPIPolicy configures the guarantee scorecard.
type KPIPolicy struct {
	Guarantees      []Guarantee `yaml:"guarantees" json:"guarantees"`
	OnTrackFraction float64     `yaml:"on_track_fraction" json:"on_track_fraction"`
}

// ForecastPolicy configures stage weights per window.
type ForecastPolicy struct {
	NearTermDays   int                      `yaml:"near_term_days" json:"near_term_days"`
	NearTermWeight map[domain.Stage]float64 `yaml:"near_term_weights" json:"near_term_weights"`
	MonthlyWeight  map[domain.Stage]float64 `yaml:"monthly_weights" json:"monthly_weights"`
}

// Metric keys used by the scorecard.
const (
	MetricResponseTime       = "time_to_first_response"
	MetricContactRate        = "contact_rate"
	MetricAppointmentSetRate = "appointment_set_rate"
	MetricShowRate           = "show_rate"
	MetricSoldRate           = "sold_rate"
	MetricFinanceCompletion  = "finance_completion"
)

// Default returns the production policy.
func Default() Policy {
	return Policy{
		Intake: IntakePolicy{
			BaselineScore:       65,
			DefaultLocation:     domain.LocationWayne,
			PageURLKeyword:      "taylor",
			PageURLLocation:     domain.LocationTaylor,
			NameAndPhoneScore:   0.92,
			NameOnlyScore:       0.72,
			PhoneOnlyScore:      0.64,
			MaxMergeSuggestions: 3,
		},
		SLA: SLAPolicy{
			MinWait:      5 * time.Minute,
			HighAfter:    10 * time.Minute,
			CriticalAt:   20 * time.Minute,
			AlertCooloff: 30 * time.Minute,
		},
		Command: CommandPolicy{
			SeverityWeights: map[string]float64{
				"critical": 50,
				"high":     30,
				"medium":   15,
				"admin":    5,
			},
			ValueDivisor:     1000,
			ValueCap:         25,
			NearWindow:       24 * time.Hour,
			NearWeight:       20,
			SoonWindow:       72 * time.Hour,
			SoonWeight:       10,
			HotScore:         80,
			HotContactWithin: 10 * time.Minute,
			DealStaleAfter:   72 * time.Hour,
			DealFollowUpDue:  24 * time.Hour,
			FollowUpAfter:    24 * time.Hour,
			AgingDays:        45,
			AgingMediumDays:  75,
		},
		BusinessHours: DefaultBusinessHours(),
		KPI: KPIPolicy{
			Guarantees: []Guarantee{
				{Metric: MetricResponseTime, Label: "Response time (min)", Baseline: 45, TargetDelta: 30, Direction: DirectionDown},
				{Metric: MetricContactRate, Label: "Contact rate", Baseline: 55, TargetDelta: 15, Direction: DirectionUp},
				{Metric: MetricAppointmentSetRate, Label: "Appointment set rate", Baseline: 20, TargetDelta: 10, Direction: DirectionUp},
				{Metric: MetricShowRate, Label: "Show rate", Baseline: 50, TargetDelta: 15, Direction: DirectionUp},
				{Metric: MetricSoldRate, Label: "Sold rate", Baseline: 10, TargetDelta: 5, Direction: DirectionUp},
				{Metric: MetricFinanceCompletion, Label: "Finance completion", Baseline: 40, TargetDelta: 20, Direction: DirectionUp},
			},
			OnTrackFraction: 0.6,
		},
		Forecast: ForecastPolicy{
			NearTermDays: 7,
			NearTermWeight: map[domain.Stage]float64{
				domain.StageClosedWon:   1,
				domain.StageNegotiating: 0.35,
			},
			MonthlyWeight: map[domain.Stage]float64{
				domain.StageClosedWon:       1,
				domain.StageNegotiating:     0.35,
				domain.StageFinancingReview: 0.2,
			},
		},
	}
}

// SeverityWeight returns the configured weight, zero when unknown.
func (c CommandPolicy) SeverityWeight(severity string) float64 {
	return c.SeverityWeights[severity]
}
