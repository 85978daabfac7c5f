package policy

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Window is an opening interval in "HH:MM" local time. Open is inclusive,
// Close is exclusive.
type Window struct {
	Open  string `yaml:"open" json:"open"`
	Close string `yaml:"close" json:"close"`
}

// BusinessHours maps lowercase weekday names to opening windows. A weekday
// with no entry is closed.
type BusinessHours struct {
	TimeZone string            `yaml:"time_zone" json:"time_zone"`
	Days     map[string]Window `yaml:"days" json:"days"`
}

// DefaultBusinessHours is Mon-Fri 09:00-19:00, Sat 09:00-17:00, Sunday closed.
func DefaultBusinessHours() BusinessHours {
	weekday := Window{Open: "09:00", Close: "19:00"}
	return BusinessHours{
		TimeZone: "America/Detroit",
		Days: map[string]Window{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  {Open: "09:00", Close: "17:00"},
		},
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (b BusinessHours) Location() *time.Location {
	if b.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsOpen reports whether t falls inside the opening window of its local weekday.
func (b BusinessHours) IsOpen(t time.Time) bool {
	local := t.In(b.Location())
	window, ok := b.Days[strings.ToLower(local.Weekday().String())]
	if !ok {
		return false
	}
	open, err := parseClock(window.Open)
	if err != nil {
		return false
	}
	closeAt, err := parseClock(window.Close)
	if err != nil {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= open && minute < closeAt
}

func (b BusinessHours) validate() error {
	if _, err := time.LoadLocation(b.TimeZone); err != nil {
		return fmt.Errorf("business_hours.time_zone: %w", err)
	}
	for day, window := range b.Days {
		if _, err := parseClock(window.Open); err != nil {
			return fmt.Errorf("business_hours.days.%s.open: %w", day, err)
		}
		if _, err := parseClock(window.Close); err != nil {
			return fmt.Errorf("business_hours.days.%s.close: %w", day, err)
		}
	}
	return nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(value string) (int, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", value)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}
