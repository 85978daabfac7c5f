// Package pipeline governs opportunity stage changes. Gates are pure checks
// on checklist evidence and consent history; the service applies a stage only
// after the gate allows it.
package pipeline

import (
	"fmt"

	"dealer_crm_backend/internal/domain"
)

const (
	reasonQuoteForNegotiating = "Quote must be shared before entering negotiating stage."
	reasonDocsForFinancing    = "Documents must be requested before entering financing review."
	reasonConsentForFinancing = "SMS consent must be verified before entering financing review."
	reasonQuoteForClosedWon   = "Quote must be shared before closing as won."
	reasonDocsForClosedWon    = "Documents must be requested before closing as won."
)

// GateResult is the outcome of a gate check. A refusal is a normal result,
// not an error.
type GateResult struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

// Evaluate checks whether an opportunity for leadID with the given checklist
// may enter target. Every failing precondition is reported. The origin stage
// is irrelevant.
func Evaluate(target domain.Stage, checklist domain.Checklist, leadID string, consents []domain.ConsentEvent) GateResult {
	reasons := make([]string, 0, 2)

	switch target {
	case domain.StageNegotiating:
		if !checklist.QuoteShared {
			reasons = append(reasons, reasonQuoteForNegotiating)
		}
	case domain.StageFinancingReview:
		if !checklist.DocsRequested {
			reasons = append(reasons, reasonDocsForFinancing)
		}
		if !checklist.ConsentVerified || !HasSMSConsent(leadID, consents) {
			reasons = append(reasons, reasonConsentForFinancing)
		}
	case domain.StageClosedWon:
		if !checklist.QuoteShared {
			reasons = append(reasons, reasonQuoteForClosedWon)
		}
		if !checklist.DocsRequested {
			reasons = append(reasons, reasonDocsForClosedWon)
		}
	default:
		if !target.IsKnown() {
			reasons = append(reasons, fmt.Sprintf("Unknown target stage %q.", target))
		}
	}

	return GateResult{Allowed: len(reasons) == 0, Reasons: reasons}
}

// HasSMSConsent reports whether any event records an SMS opt-in for leadID.
func HasSMSConsent(leadID string, consents []domain.ConsentEvent) bool {
	for _, ev := range consents {
		if ev.LeadID == leadID && ev.Channel == domain.ChannelSMS && ev.Consented {
			return true
		}
	}
	return false
}
