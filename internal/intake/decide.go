// Package intake turns raw lead submissions into lead records: it normalizes
// contact details, reuses exact phone/email matches, routes the lead to a
// location and surfaces fuzzy duplicates for a human merge decision.
package intake

import (
	"sort"
	"strings"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
	"dealer_crm_backend/platform/contact"
)

// ConsentFlags are the opt-ins ticked on the submitting form.
type ConsentFlags struct {
	SMS   bool
	Phone bool
	Email bool
}

// Submission is a raw intake payload after boundary validation.
type Submission struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Source         domain.LeadSource
	Message        string
	PageURL        string
	UTM            domain.UTM
	ClickedVehicle string
	LocationIntent domain.Location
	Urgency        domain.Urgency
	HasTradeIn     bool
	BudgetMin      *float64
	BudgetMax      *float64
	Consent        ConsentFlags
}

// MergeSuggestion is a probable duplicate worth a human look.
type MergeSuggestion struct {
	LeadID     string  `json:"lead_id"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Decision is the outcome of intake dedup and routing.
type Decision struct {
	LeadID           string
	RoutedLocation   domain.Location
	DedupeMatchID    string
	MergeSuggestions []MergeSuggestion
	CreatedNewLead   bool
	NormalizedPhone  string
	NormalizedEmail  string
}

const (
	reasonNameAndPhone = "Same last name and phone suffix"
	reasonNameOnly     = "Same last name"
	reasonPhoneOnly    = "Same phone suffix (last 7 digits)"
)

// Decide resolves a submission against the existing leads. newID is used
// when no exact match exists. Decide performs no I/O.
func Decide(p policy.IntakePolicy, sub Submission, existing []domain.Lead, newID string) Decision {
	d := Decision{
		NormalizedPhone: contact.NormalizePhone(sub.Phone),
		NormalizedEmail: contact.NormalizeEmail(sub.Email),
		RoutedLocation:  Route(p, sub.LocationIntent, sub.PageURL),
	}

	if match, ok := ExactMatch(existing, d.NormalizedPhone, d.NormalizedEmail); ok {
		d.LeadID = match.ID
		d.DedupeMatchID = match.ID
	} else {
		d.LeadID = newID
		d.CreatedNewLead = true
	}

	d.MergeSuggestions = SuggestMerges(p, sub.LastName, d.NormalizedPhone, existing, d.DedupeMatchID)
	return d
}

// ExactMatch finds the first lead with the same normalized phone, falling
// back to the first lead with the same normalized email. Phone wins.
func ExactMatch(existing []domain.Lead, phone, email string) (domain.Lead, bool) {
	if phone != "" {
		for _, lead := range existing {
			if contact.NormalizePhone(lead.Phone) == phone {
				return lead, true
			}
		}
	}
	if email != "" {
		for _, lead := range existing {
			if contact.NormalizeEmail(lead.Email) == email {
				return lead, true
			}
		}
	}
	return domain.Lead{}, false
}

// Route picks the owning location: the explicit intent, else the keyword
// location when the page URL mentions it, else the default.
func Route(p policy.IntakePolicy, intent domain.Location, pageURL string) domain.Location {
	if intent != "" {
		return intent
	}
	if p.PageURLKeyword != "" && strings.Contains(strings.ToLower(pageURL), strings.ToLower(p.PageURLKeyword)) {
		return p.PageURLLocation
	}
	return p.DefaultLocation
}

// SuggestMerges scores existing leads by last-name and phone-suffix overlap.
// The matching is deliberately loose and may flag unrelated people who share a
// surname; it only feeds a human review queue. excludeID is skipped.
func SuggestMerges(p policy.IntakePolicy, lastName, normalizedPhone string, existing []domain.Lead, excludeID string) []MergeSuggestion {
	name := strings.ToLower(strings.TrimSpace(lastName))
	suffix := contact.PhoneSuffix(normalizedPhone)

	suggestions := make([]MergeSuggestion, 0)
	for _, lead := range existing {
		if excludeID != "" && lead.ID == excludeID {
			continue
		}
		nameMatch := name != "" && strings.ToLower(strings.TrimSpace(lead.LastName)) == name
		phoneMatch := suffix != "" && contact.PhoneSuffix(contact.NormalizePhone(lead.Phone)) == suffix

		switch {
		case nameMatch && phoneMatch:
			suggestions = append(suggestions, MergeSuggestion{LeadID: lead.ID, Confidence: p.NameAndPhoneScore, Reason: reasonNameAndPhone})
		case nameMatch:
			suggestions = append(suggestions, MergeSuggestion{LeadID: lead.ID, Confidence: p.NameOnlyScore, Reason: reasonNameOnly})
		case phoneMatch:
			suggestions = append(suggestions, MergeSuggestion{LeadID: lead.ID, Confidence: p.PhoneOnlyScore, Reason: reasonPhoneOnly})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if p.MaxMergeSuggestions >= 0 && len(suggestions) > p.MaxMergeSuggestions {
		suggestions = suggestions[:p.MaxMergeSuggestions]
	}
	return suggestions
}
