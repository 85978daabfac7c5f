// Package email delivers staff notifications over SMTP.
package email

import (
	"context"
	"time"
)

// SLAAlert is the content of a breach notification.
type SLAAlert struct {
	LeadID         string
	LeadName       string
	Phone          string
	Location       string
	Severity       string
	MinutesWaiting int
	DetectedAt     time.Time
	LeadURL        string
}

// AppointmentReminder is the content of a test-drive reminder.
type AppointmentReminder struct {
	LeadName     string
	Location     string
	VehicleLabel string
	StartsAt     time.Time
	LeadURL      string
}

// Sender sends staff notifications.
type Sender interface {
	SendSLAAlert(ctx context.Context, toEmail string, alert SLAAlert) error
	SendAppointmentReminder(ctx context.Context, toEmail string, reminder AppointmentReminder) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendSLAAlert(ctx context.Context, toEmail string, alert SLAAlert) error {
	return nil
}

func (NoopSender) SendAppointmentReminder(ctx context.Context, toEmail string, reminder AppointmentReminder) error {
	return nil
}
