package leads

// StatusRequest asks for a manual status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required,max=40"`
}

// UrgencyRequest sets the rep-assigned priority.
type UrgencyRequest struct {
	Urgency string `json:"urgency" validate:"required,oneof=high medium low"`
}
