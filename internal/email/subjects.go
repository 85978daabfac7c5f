package email

const (
	subjectSLAAlertFmt            = "[%s] %s has waited %d min for first contact"
	subjectAppointmentReminderFmt = "Test drive at %s: %s"
)
