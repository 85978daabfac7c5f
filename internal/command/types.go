// Package command computes the rep-facing views that are recomputed on every
// refresh: business-hours SLA alerts and the ranked list of next-best actions.
// Nothing here is stored; every function takes the snapshot and "now".
package command

import (
	"strings"
	"time"

	"dealer_crm_backend/internal/domain"
)

// Severity ranks how urgent an action or alert is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityAdmin    Severity = "admin"
)

// ActionKind is what the rep is asked to do.
type ActionKind string

const (
	ActionCall             ActionKind = "call"
	ActionRequestDocuments ActionKind = "request_documents"
	ActionReassign         ActionKind = "reassign"
	ActionSendAIText       ActionKind = "send_ai_text"
	ActionOpenInventory    ActionKind = "open_inventory"
)

var actionLabels = map[ActionKind]string{
	ActionCall:             "Call",
	ActionRequestDocuments: "Request Documents",
	ActionReassign:         "Reassign",
	ActionSendAIText:       "Send AI Text",
	ActionOpenInventory:    "Open Inventory",
}

// Label is the button text for the action.
func (k ActionKind) Label() string {
	return actionLabels[k]
}

// Rule names the rule family that produced an action.
type Rule string

const (
	RuleHotUncontacted  Rule = "hot_uncontacted"
	RuleDealAtRisk      Rule = "deal_at_risk"
	RuleFollowUpOverdue Rule = "follow_up_overdue"
	RuleAgingInventory  Rule = "aging_inventory"
)

// Action is a ranked recommendation.
type Action struct {
	ID            string     `json:"id"`
	Rule          Rule       `json:"rule"`
	LeadID        string     `json:"lead_id,omitempty"`
	InventoryID   string     `json:"inventory_id,omitempty"`
	Title         string     `json:"title"`
	Reason        string     `json:"reason"`
	Severity      Severity   `json:"severity"`
	ActionKind    ActionKind `json:"action_kind"`
	ActionLabel   string     `json:"action_label"`
	DueAt         time.Time  `json:"due_at"`
	DueLabel      string     `json:"due_label"`
	ImpactScore   float64    `json:"impact_score"`
	ExpectedValue float64    `json:"expected_value"`
}

// SLAAlert flags a lead still waiting for a first response.
type SLAAlert struct {
	LeadID         string          `json:"lead_id"`
	LeadName       string          `json:"lead_name"`
	Phone          string          `json:"phone,omitempty"`
	Location       domain.Location `json:"location"`
	Severity       Severity        `json:"severity"`
	MinutesWaiting int             `json:"minutes_waiting"`
	CreatedAt      time.Time       `json:"created_at"`
}

func leadName(l domain.Lead) string {
	name := strings.TrimSpace(l.FirstName + " " + l.LastName)
	if name == "" {
		return "Unnamed lead"
	}
	return name
}
