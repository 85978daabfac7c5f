package command

import (
	"sort"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
)

// SLAAlerts lists uncontacted open leads past the minimum wait, longest wait
// first. Outside business hours the list is always empty.
func SLAAlerts(p policy.Policy, now time.Time, leads []domain.Lead) []SLAAlert {
	alerts := make([]SLAAlert, 0)
	if !p.BusinessHours.IsOpen(now) {
		return alerts
	}

	for _, lead := range leads {
		if lead.FirstContactAt != nil || lead.Status.IsClosed() {
			continue
		}
		waited := now.Sub(lead.CreatedAt)
		if waited < p.SLA.MinWait {
			continue
		}
		alerts = append(alerts, SLAAlert{
			LeadID:         lead.ID,
			LeadName:       leadName(lead),
			Phone:          lead.Phone,
			Location:       lead.LocationIntent,
			Severity:       slaSeverity(p.SLA, waited),
			MinutesWaiting: int(waited / time.Minute),
			CreatedAt:      lead.CreatedAt,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].MinutesWaiting != alerts[j].MinutesWaiting {
			return alerts[i].MinutesWaiting > alerts[j].MinutesWaiting
		}
		return alerts[i].LeadID < alerts[j].LeadID
	})
	return alerts
}

func slaSeverity(p policy.SLAPolicy, waited time.Duration) Severity {
	switch {
	case waited >= p.CriticalAt:
		return SeverityCritical
	case waited >= p.HighAfter:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
