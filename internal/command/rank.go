package command

import (
	"fmt"
	"math"
	"sort"
	"time"

	"dealer_crm_backend/internal/domain"
	"dealer_crm_backend/internal/policy"
)

// Actions evaluates every rule family over the snapshot and returns the pooled
// actions ranked by impact, soonest due first on ties. Identical inputs always
// give the identical order.
func Actions(p policy.Policy, now time.Time, snap domain.Snapshot) []Action {
	cp := p.Command
	pool := make(map[string]Action)

	add := func(a Action, ok bool) {
		if !ok {
			return
		}
		a.ActionLabel = a.ActionKind.Label()
		a.DueLabel = DueLabel(now, a.DueAt)
		a.ImpactScore = ImpactScore(cp, now, a.Severity, a.ExpectedValue, a.DueAt)
		if prev, exists := pool[a.ID]; exists && prev.ImpactScore >= a.ImpactScore {
			return
		}
		pool[a.ID] = a
	}

	for _, lead := range snap.Leads {
		add(hotUncontacted(cp, now, lead))
		add(dealAtRisk(cp, now, lead))
		add(followUpOverdue(cp, now, lead))
	}
	for _, unit := range snap.Inventory {
		add(agingInventory(cp, now, unit))
	}

	actions := make([]Action, 0, len(pool))
	for _, a := range pool {
		actions = append(actions, a)
	}
	Sort(actions)
	return actions
}

// Sort orders by impact descending, then due ascending, then id.
func Sort(actions []Action) {
	sort.Slice(actions, func(i, j int) bool {
		a, b := actions[i], actions[j]
		if a.ImpactScore != b.ImpactScore {
			return a.ImpactScore > b.ImpactScore
		}
		if !a.DueAt.Equal(b.DueAt) {
			return a.DueAt.Before(b.DueAt)
		}
		return a.ID < b.ID
	})
}

// ImpactScore = severity weight + capped value weight + due-window weight,
// rounded to one decimal.
func ImpactScore(p policy.CommandPolicy, now time.Time, severity Severity, expectedValue float64, due time.Time) float64 {
	score := p.SeverityWeight(string(severity))

	if p.ValueDivisor > 0 && expectedValue > 0 {
		score += math.Min(expectedValue/p.ValueDivisor, p.ValueCap)
	}

	until := due.Sub(now)
	switch {
	case until <= p.NearWindow:
		score += p.NearWeight
	case until <= p.SoonWindow:
		score += p.SoonWeight
	}
	return math.Round(score*10) / 10
}

// DueLabel renders due relative to now, e.g. "Overdue 5m" or "Due in 3h".
func DueLabel(now, due time.Time) string {
	diff := due.Sub(now)
	if diff <= 0 {
		if -diff < time.Minute {
			return "Due now"
		}
		return "Overdue " + humanize(-diff)
	}
	return "Due in " + humanize(diff)
}

func humanize(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}
