package command

import (
	"fmt"
	"strings"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
)

// hotUncontacted: high-score lead nobody has called inside the contact window.
func hotUncontacted(p policy.CommandPolicy, now time.Time, lead domain.Lead) (Action, bool) {
	if lead.Status.IsClosed() || lead.FirstContactAt != nil || lead.LeadScore < p.HotScore {
		return Action{}, false
	}
	if now.Sub(lead.CreatedAt) <= p.HotContactWithin {
		return Action{}, false
	}

	severity := SeverityHigh
	if lead.Urgency == domain.UrgencyHigh {
		severity = SeverityCritical
	}
	return Action{
		ID:            actionID(RuleHotUncontacted, lead.ID),
		Rule:          RuleHotUncontacted,
		LeadID:        lead.ID,
		Title:         "Call hot lead " + leadName(lead),
		Reason:        fmt.Sprintf("Lead score %d with no first contact after %d minutes", lead.LeadScore, int(p.HotContactWithin/time.Minute)),
		Severity:      severity,
		ActionKind:    ActionCall,
		DueAt:         lead.CreatedAt.Add(p.HotContactWithin),
		ExpectedValue: lead.ExpectedValue(),
	}, true
}

// dealAtRisk: late-stage deal missing a value, a follow-up or fresh activity.
func dealAtRisk(p policy.CommandPolicy, now time.Time, lead domain.Lead) (Action, bool) {
	if lead.Status != domain.StageNegotiating && lead.Status != domain.StageFinancingReview {
		return Action{}, false
	}

	var missing []string
	if lead.DealValue == nil {
		missing = append(missing, "deal value")
	}
	if lead.LastContactAt == nil {
		missing = append(missing, "recent follow-up")
	}
	if now.Sub(lead.CreatedAt) > p.DealStaleAfter {
		missing = append(missing, "fresh activity")
	}
	if len(missing) == 0 {
		return Action{}, false
	}

	due := now
	if lead.LastContactAt != nil {
		due = lead.LastContactAt.Add(p.DealFollowUpDue)
	}
	kind := ActionReassign
	if lead.Status == domain.StageFinancingReview {
		kind = ActionRequestDocuments
	}
	return Action{
		ID:            actionID(RuleDealAtRisk, lead.ID),
		Rule:          RuleDealAtRisk,
		LeadID:        lead.ID,
		Title:         "Deal at risk: " + leadName(lead),
		Reason:        "Missing " + strings.Join(missing, ", "),
		Severity:      SeverityCritical,
		ActionKind:    kind,
		DueAt:         due,
		ExpectedValue: lead.ExpectedValue(),
	}, true
}

// followUpOverdue: early-stage lead with no touch inside the follow-up window.
func followUpOverdue(p policy.CommandPolicy, now time.Time, lead domain.Lead) (Action, bool) {
	switch lead.Status {
	case domain.StageNew, domain.StageContacted, domain.StageInterested:
	default:
		return Action{}, false
	}

	last := lastTouch(lead)
	if now.Sub(last) <= p.FollowUpAfter {
		return Action{}, false
	}

	severity := SeverityMedium
	if lead.Urgency == domain.UrgencyHigh {
		severity = SeverityHigh
	}
	return Action{
		ID:            actionID(RuleFollowUpOverdue, lead.ID),
		Rule:          RuleFollowUpOverdue,
		LeadID:        lead.ID,
		Title:         "Follow up with " + leadName(lead),
		Reason:        fmt.Sprintf("No touch in %d hours", int(now.Sub(last)/time.Hour)),
		Severity:      severity,
		ActionKind:    ActionSendAIText,
		DueAt:         last.Add(p.FollowUpAfter),
		ExpectedValue: lead.ExpectedValue(),
	}, true
}

// agingInventory: available unit sitting on the lot too long.
func agingInventory(p policy.CommandPolicy, now time.Time, unit domain.InventoryUnit) (Action, bool) {
	if unit.Status != domain.InventoryAvailable {
		return Action{}, false
	}
	days := unit.DaysInStock(now)
	if days < p.AgingDays {
		return Action{}, false
	}

	severity := SeverityAdmin
	if days >= p.AgingMediumDays {
		severity = SeverityMedium
	}
	label := unit.Label
	if label == "" {
		label = unit.StockNo
	}
	return Action{
		ID:            actionID(RuleAgingInventory, unit.ID),
		Rule:          RuleAgingInventory,
		InventoryID:   unit.ID,
		Title:         "Aging unit " + label,
		Reason:        fmt.Sprintf("%d days in stock", days),
		Severity:      severity,
		ActionKind:    ActionOpenInventory,
		DueAt:         unit.InStockAt.AddDate(0, 0, p.AgingDays),
		ExpectedValue: unit.ListPrice,
	}, true
}

// lastTouch is the latest of last contact, first contact and creation.
func lastTouch(lead domain.Lead) time.Time {
	last := lead.CreatedAt
	if lead.FirstContactAt != nil && lead.FirstContactAt.After(last) {
		last = *lead.FirstContactAt
	}
	if lead.LastContactAt != nil && lead.LastContactAt.After(last) {
		last = *lead.LastContactAt
	}
	return last
}

func actionID(rule Rule, subjectID string) string {
	return string(rule) + ":" + subjectID
}
