package pipeline

// StageRequest asks for a stage change.
type StageRequest struct {
	Stage string `json:"stage" validate:"required,max=40"`
}

// ConsentRequest captures a staff-recorded consent decision.
type ConsentRequest struct {
	Channel   string `json:"channel" validate:"required,oneof=sms phone email"`
	Consented *bool  `json:"consented" validate:"required"`
	Source    string `json:"source" validate:"required,max=100"`
	Proof     string `json:"proof" validate:"required,max=2000"`
}
