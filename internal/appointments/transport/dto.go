package transport

import "time"

// CreateAppointmentRequest books a test drive.
type CreateAppointmentRequest struct {
	LeadID       string    `json:"lead_id" validate:"required,max=64"`
	Location     string    `json:"location" validate:"omitempty,location"`
	VehicleLabel string    `json:"vehicle_label" validate:"max=200"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
}

// UpdateAppointmentStatusRequest moves a booking along. StartsAt is required
// when rescheduling.
type UpdateAppointmentStatusRequest struct {
	Status   string     `json:"status" validate:"required,oneof=confirmed showed no_show rescheduled cancelled"`
	StartsAt *time.Time `json:"starts_at,omitempty" validate:"required_if=Status rescheduled"`
}

// ListAppointmentsRequest filters the list.
type ListAppointmentsRequest struct {
	LeadID   string `form:"lead_id"`
	Status   string `form:"status" validate:"omitempty,oneof=booked confirmed showed no_show rescheduled cancelled"`
	Location string `form:"location" validate:"omitempty,location"`
}
