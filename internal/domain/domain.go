// Package domain holds the dealership CRM records shared by every bounded
// context. Types here carry no behaviour beyond small derived helpers.
package domain

import "time"

// Location is a physical dealership site.
type Location string

const (
	LocationWayne  Location = "wayne"
	LocationTaylor Location = "taylor"
)

// LeadSource is the channel a lead arrived through.
type LeadSource string

const (
	SourceWebsiteForm LeadSource = "website_form"
	SourcePhone       LeadSource = "phone"
	SourceFacebook    LeadSource = "facebook"
	SourceWalkIn      LeadSource = "walk_in"
	SourceSMS         LeadSource = "sms"
	SourceEmail       LeadSource = "email"
)

// Stage is the pipeline position shared by Lead.Status and Opportunity.Stage.
type Stage string

const (
	StageNew               Stage = "new"
	StageContacted         Stage = "contacted"
	StageAppointmentSet    Stage = "appointment_set"
	StageAppointmentShowed Stage = "appointment_showed"
	StageNegotiating       Stage = "negotiating"
	StageFinancingReview   Stage = "financing_review"
	StageClosedWon         Stage = "closed_won"
	StageClosedLost        Stage = "closed_lost"

	// StageInterested is a legacy lead status still found on imported records.
	StageInterested Stage = "interested"
)

// Stages lists the pipeline in its nominal order.
var Stages = []Stage{
	StageNew, StageContacted, StageAppointmentSet, StageAppointmentShowed,
	StageNegotiating, StageFinancingReview, StageClosedWon, StageClosedLost,
}

// IsKnown reports whether s is one of the eight pipeline stages.
func (s Stage) IsKnown() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// Rank is the position of s in the nominal pipeline order. The legacy
// interested status ranks with contacted. Unknown stages rank -1.
func (s Stage) Rank() int {
	if s == StageInterested {
		s = StageContacted
	}
	for i, known := range Stages {
		if s == known {
			return i
		}
	}
	return -1
}

// IsClosed reports whether s ends the deal.
func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Urgency is the rep-assigned priority of a lead.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// UTM carries campaign attribution captured at intake.
type UTM struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Term     string `json:"utm_term,omitempty"`
	Content  string `json:"utm_content,omitempty"`
}

// Lead is a prospective customer.
type Lead struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Source         LeadSource `json:"source"`
	Status         Stage      `json:"status"`
	Urgency        Urgency    `json:"urgency"`
	LeadScore      int        `json:"lead_score"`
	LocationIntent Location   `json:"location_intent"`
	Message        string     `json:"message,omitempty"`
	PageURL        string     `json:"page_url,omitempty"`
	UTM            UTM        `json:"utm"`
	ClickedVehicle string     `json:"clicked_vehicle,omitempty"`
	HasTradeIn     bool       `json:"has_trade_in"`
	BudgetMin      *float64   `json:"budget_min,omitempty"`
	BudgetMax      *float64   `json:"budget_max,omitempty"`
	DealValue      *float64   `json:"deal_value,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	FirstContactAt *time.Time `json:"first_contact_at,omitempty"`
	LastContactAt  *time.Time `json:"last_contact_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
}

// ExpectedValue is the best known value of the deal: the recorded deal value,
// then the top of the stated budget, else zero.
func (l Lead) ExpectedValue() float64 {
	if l.DealValue != nil {
		return *l.DealValue
	}
	if l.BudgetMax != nil {
		return *l.BudgetMax
	}
	return 0
}

// Checklist holds durable evidence flags on an opportunity. Flags only move
// from false to true.
type Checklist struct {
	QuoteShared     bool `json:"quote_shared"`
	DocsRequested   bool `json:"docs_requested"`
	ConsentVerified bool `json:"consent_verified"`
}

// Merge returns c with every flag set in other also set. Nothing is cleared.
func (c Checklist) Merge(other Checklist) Checklist {
	return Checklist{
		QuoteShared:     c.QuoteShared || other.QuoteShared,
		DocsRequested:   c.DocsRequested || other.DocsRequested,
		ConsentVerified: c.ConsentVerified || other.ConsentVerified,
	}
}

// Opportunity is the pipeline projection of a lead's active deal.
type Opportunity struct {
	ID            string    `json:"id"`
	LeadID        string    `json:"lead_id"`
	Stage         Stage     `json:"stage"`
	ExpectedValue float64   `json:"expected_value"`
	Location      Location  `json:"location"`
	Checklist     Checklist `json:"checklist"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AppointmentStatus tracks a test-drive booking.
type AppointmentStatus string

const (
	AppointmentBooked      AppointmentStatus = "booked"
	AppointmentConfirmed   AppointmentStatus = "confirmed"
	AppointmentShowed      AppointmentStatus = "showed"
	AppointmentNoShow      AppointmentStatus = "no_show"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
	AppointmentCancelled   AppointmentStatus = "cancelled"
)

// Appointment is a scheduled test drive.
type Appointment struct {
	ID           string            `json:"id"`
	LeadID       string            `json:"lead_id"`
	Location     Location          `json:"location"`
	VehicleLabel string            `json:"vehicle_label"`
	StartsAt     time.Time         `json:"starts_at"`
	Status       AppointmentStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// FinanceStatus tracks a credit application.
type FinanceStatus string

const (
	FinanceStarted    FinanceStatus = "started"
	FinanceIncomplete FinanceStatus = "incomplete"
	FinanceSubmitted  FinanceStatus = "submitted"
	FinanceApproved   FinanceStatus = "approved"
	FinanceDeclined   FinanceStatus = "declined"
	FinanceNeedsDocs  FinanceStatus = "needs_docs"
)

// FinanceApplication is a lead's credit application.
type FinanceApplication struct {
	ID                string        `json:"id"`
	LeadID            string        `json:"lead_id"`
	Status            FinanceStatus `json:"status"`
	CompletionPercent int           `json:"completion_percent"`
	MissingItems      []string      `json:"missing_items"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// ConsentChannel is a contact channel a customer can opt into.
type ConsentChannel string

const (
	ChannelSMS   ConsentChannel = "sms"
	ChannelPhone ConsentChannel = "phone"
	ChannelEmail ConsentChannel = "email"
)

// ConsentEvent is an immutable proof of a consent decision. Events are only
// ever appended.
type ConsentEvent struct {
	ID        string         `json:"id"`
	LeadID    string         `json:"lead_id"`
	Channel   ConsentChannel `json:"channel"`
	Consented bool           `json:"consented"`
	Source    string         `json:"source"`
	Proof     string         `json:"proof"`
	CreatedAt time.Time      `json:"created_at"`
}

// InventoryStatus tracks a stock unit.
type InventoryStatus string

const (
	InventoryAvailable InventoryStatus = "available"
	InventoryPending   InventoryStatus = "pending"
	InventorySold      InventoryStatus = "sold"
)

// InventoryUnit is a vehicle on the lot.
type InventoryUnit struct {
	ID        string          `json:"id"`
	StockNo   string          `json:"stock_no"`
	Label     string          `json:"label"`
	Location  Location        `json:"location"`
	ListPrice float64         `json:"list_price"`
	Status    InventoryStatus `json:"status"`
	InStockAt time.Time       `json:"in_stock_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// DaysInStock is the whole number of days the unit has been on the lot.
func (u InventoryUnit) DaysInStock(now time.Time) int {
	if now.Before(u.InStockAt) {
		return 0
	}
	return int(now.Sub(u.InStockAt).Hours() / 24)
}

// Snapshot is a consistent read of every collection used by the derived views.
type Snapshot struct {
	Leads               []Lead
	Opportunities       []Opportunity
	Appointments        []Appointment
	FinanceApplications []FinanceApplication
	ConsentEvents       []ConsentEvent
	Inventory           []InventoryUnit
}

// OpportunityByLead indexes opportunities by lead id. When a lead has more
// than one, the last one wins.
func (s Snapshot) OpportunityByLead() map[string]Opportunity {
	out := make(map[string]Opportunity, len(s.Opportunities))
	for _, opp := range s.Opportunities {
		out[opp.LeadID] = opp
	}
	return out
}
