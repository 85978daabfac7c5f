package finance

// CreateRequest starts an application.
type CreateRequest struct {
	LeadID string `json:"lead_id" validate:"required,max=64"`
}

// ProgressRequest updates an application.
type ProgressRequest struct {
	Status            *string  `json:"status" validate:"omitempty,oneof=started incomplete submitted approved declined needs_docs"`
	CompletionPercent *int     `json:"completion_percent" validate:"omitempty,min=0,max=100"`
	MissingItems      []string `json:"missing_items" validate:"omitempty,max=20,dive,required,max=80"`
}
