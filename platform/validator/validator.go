// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"github.com/go-playground/validator/v10"
)

var (
	knownLocations = map[string]struct{}{"wayne": {}, "taylor": {}}
	knownSources   = map[string]struct{}{
		"website_form": {}, "phone": {}, "facebook": {}, "walk_in": {}, "sms": {}, "email": {},
	}
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the dealership tags registered:
// `location` (wayne|taylor) and `leadsource`.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("location", setMember(knownLocations))
	_ = v.RegisterValidation("leadsource", setMember(knownSources))
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

func setMember(set map[string]struct{}) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}
