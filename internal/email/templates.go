package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type slaAlertEmailData struct {
	baseEmailData
	LeadName       string
	Phone          string
	Location       string
	Severity       string
	MinutesWaiting int
	DetectedAt     string
}

type appointmentReminderEmailData struct {
	baseEmailData
	LeadName     string
	Location     string
	VehicleLabel string
	StartsAt     string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderSLAAlert(alert SLAAlert) (subject, body string, err error) {
	subject = fmt.Sprintf(subjectSLAAlertFmt, alert.Severity, alert.LeadName, alert.MinutesWaiting)
	body, err = renderEmailTemplate("sla_alert.html", slaAlertEmailData{
		baseEmailData: baseEmailData{
			Title:    "Speed-to-lead breach",
			Heading:  "A lead is waiting for first contact",
			CTALabel: "Open lead",
			CTAURL:   alert.LeadURL,
		},
		LeadName:       alert.LeadName,
		Phone:          alert.Phone,
		Location:       alert.Location,
		Severity:       alert.Severity,
		MinutesWaiting: alert.MinutesWaiting,
		DetectedAt:     alert.DetectedAt.Format("Mon Jan 2 15:04 MST"),
	})
	return subject, body, err
}

func renderAppointmentReminder(r AppointmentReminder) (subject, body string, err error) {
	startsAt := r.StartsAt.Format("Mon Jan 2 3:04 PM MST")
	subject = fmt.Sprintf(subjectAppointmentReminderFmt, r.StartsAt.Format("3:04 PM"), r.LeadName)
	body, err = renderEmailTemplate("appointment_reminder.html", appointmentReminderEmailData{
		baseEmailData: baseEmailData{
			Title:    "Upcoming test drive",
			Heading:  "Upcoming test drive",
			CTALabel: "Open lead",
			CTAURL:   r.LeadURL,
		},
		LeadName:     r.LeadName,
		Location:     r.Location,
		VehicleLabel: r.VehicleLabel,
		StartsAt:     startsAt,
	})
	return subject, body, err
}
