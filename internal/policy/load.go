package policy

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML document at path on Default(). An empty path
// returns the defaults. Unknown keys are rejected.
func LoadFile(path string) (Policy, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(raw)
}

// Parse overlays a YAML document on Default().
func Parse(raw []byte) (Policy, error) {
	p := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return p, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the constraints the engines rely on.
func (p Policy) Validate() error {
	var errs []error
	if p.Command.ValueDivisor <= 0 {
		errs = append(errs, errors.New("command.value_divisor must be positive"))
	}
	if p.Intake.MaxMergeSuggestions < 0 {
		errs = append(errs, errors.New("intake.max_merge_suggestions must not be negative"))
	}
	if p.KPI.OnTrackFraction <= 0 || p.KPI.OnTrackFraction > 1 {
		errs = append(errs, errors.New("kpi.on_track_fraction must be in (0, 1]"))
	}
	for _, g := range p.KPI.Guarantees {
		if g.Direction != DirectionUp && g.Direction != DirectionDown {
			errs = append(errs, fmt.Errorf("kpi guarantee %s: direction must be up or down", g.Metric))
		}
	}
	if err := p.BusinessHours.validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
