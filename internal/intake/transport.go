package intake

import "dealer_crm_backend/internal/domain"

// IntakeRequest is the public intake payload.
type IntakeRequest struct {
	FirstName      string   `json:"first_name" validate:"required,max=100"`
	LastName       string   `json:"last_name" validate:"required,max=100"`
	Email          string   `json:"email" validate:"omitempty,email,max=254"`
	Phone          string   `json:"phone" validate:"omitempty,max=32"`
	Source         string   `json:"source" validate:"required,leadsource"`
	Message        string   `json:"message" validate:"max=4000"`
	PageURL        string   `json:"page_url" validate:"omitempty,max=2048"`
	UTMSource      string   `json:"utm_source" validate:"max=200"`
	UTMMedium      string   `json:"utm_medium" validate:"max=200"`
	UTMCampaign    string   `json:"utm_campaign" validate:"max=200"`
	UTMTerm        string   `json:"utm_term" validate:"max=200"`
	UTMContent     string   `json:"utm_content" validate:"max=200"`
	ClickedVehicle string   `json:"clicked_vehicle" validate:"max=200"`
	LocationIntent string   `json:"location_intent" validate:"omitempty,location"`
	Urgency        string   `json:"urgency" validate:"omitempty,oneof=high medium low"`
	HasTradeIn     bool     `json:"has_trade_in"`
	BudgetMin      *float64 `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax      *float64 `json:"budget_max" validate:"omitempty,gte=0"`
	ConsentSMS     bool     `json:"consent_sms"`
	ConsentPhone   bool     `json:"consent_phone"`
	ConsentEmail   bool     `json:"consent_email"`
}

// ToSubmission maps the payload onto the engine input.
func (r IntakeRequest) ToSubmission() Submission {
	return Submission{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Source:    domain.LeadSource(r.Source),
		Message:   r.Message,
		PageURL:   r.PageURL,
		UTM: domain.UTM{
			Source:   r.UTMSource,
			Medium:   r.UTMMedium,
			Campaign: r.UTMCampaign,
			Term:     r.UTMTerm,
			Content:  r.UTMContent,
		},
		ClickedVehicle: r.ClickedVehicle,
		LocationIntent: domain.Location(r.LocationIntent),
		Urgency:        domain.Urgency(r.Urgency),
		HasTradeIn:     r.HasTradeIn,
		BudgetMin:      r.BudgetMin,
		BudgetMax:      r.BudgetMax,
		Consent: ConsentFlags{
			SMS:   r.ConsentSMS,
			Phone: r.ConsentPhone,
			Email: r.ConsentEmail,
		},
	}
}

// MergeSuggestionsResponse wraps merge suggestions for a lead.
type MergeSuggestionsResponse struct {
	LeadID      string            `json:"lead_id"`
	Suggestions []MergeSuggestion `json:"suggestions"`
}
