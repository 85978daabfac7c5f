package policy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dealer_crm_backend/internal/domain"
)

func utcHours() BusinessHours {
	h := DefaultBusinessHours()
	h.TimeZone = "UTC"
	return h
}

func TestBusinessHoursIsOpen(t *testing.T) {
	hours := utcHours()
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday opening minute", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), true},
		{"monday before open", time.Date(2025, 6, 2, 8, 59, 0, 0, time.UTC), false},
		{"friday last minute", time.Date(2025, 6, 6, 18, 59, 0, 0, time.UTC), true},
		{"friday at close", time.Date(2025, 6, 6, 19, 0, 0, 0, time.UTC), false},
		{"saturday afternoon", time.Date(2025, 6, 7, 16, 30, 0, 0, time.UTC), true},
		{"saturday evening", time.Date(2025, 6, 7, 17, 30, 0, 0, time.UTC), false},
		{"sunday noon", time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hours.IsOpen(tt.at); got != tt.want {
				t.Fatalf("expected %v at %s, got %v", tt.want, tt.at, got)
			}
		})
	}
}

func TestBusinessHoursUsesTimeZone(t *testing.T) {
	hours := DefaultBusinessHours()
	hours.TimeZone = "America/New_York"
	// 14:00 UTC on a June Monday is 10:00 in New York.
	if !hours.IsOpen(time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected open at 10:00 local")
	}
	// 12:00 UTC is 08:00 local.
	if hours.IsOpen(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected closed at 08:00 local")
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	p, err := Parse([]byte(`
sla:
  min_wait: 2m
command:
  severity_weights:
    critical: 60
forecast:
  monthly_weights:
    closed_won: 1
    negotiating: 0.5
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SLA.MinWait != 2*time.Minute {
		t.Fatalf("expected min_wait 2m, got %v", p.SLA.MinWait)
	}
	if p.SLA.CriticalAt != 20*time.Minute {
		t.Fatalf("expected untouched critical_after, got %v", p.SLA.CriticalAt)
	}
	if p.Command.SeverityWeight("critical") != 60 {
		t.Fatalf("expected critical weight 60, got %v", p.Command.SeverityWeight("critical"))
	}
	if p.Forecast.MonthlyWeight[domain.StageNegotiating] != 0.5 {
		t.Fatalf("expected negotiating weight 0.5, got %v", p.Forecast.MonthlyWeight[domain.StageNegotiating])
	}
	if p.Intake.BaselineScore != 65 {
		t.Fatalf("expected default baseline score, got %d", p.Intake.BaselineScore)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse([]byte("unknown_section: true\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestParseRejectsBadDirection(t *testing.T) {
	_, err := Parse([]byte(`
kpi:
  guarantees:
    - metric: contact_rate
      baseline: 50
      target_delta: 10
      direction: sideways
`))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadFile(t *testing.T) {
	p, err := LoadFile("")
	if err != nil || p.Intake.PageURLKeyword != "taylor" {
		t.Fatalf("expected defaults for empty path, got %+v, %v", p.Intake, err)
	}

	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("intake:\n  baseline_score: 70\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err = LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Intake.BaselineScore != 70 {
		t.Fatalf("expected 70, got %d", p.Intake.BaselineScore)
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}
