package suggest

import (
	"errors"
	"strings"
)

// Request is the top-level request contract. BusinessDescription wins when
// non-blank; Inputs is the field name used by hosted inference endpoints.
type Request struct {
	BusinessDescription string      `json:"business_description,omitempty"`
	Inputs              string      `json:"inputs,omitempty"`
	Parameters          *Parameters `json:"parameters,omitempty"`
}

// Parameters are optional per-request generation overrides.
type Parameters struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxNewTokens *int     `json:"max_new_tokens,omitempty"`
	MinP         *float64 `json:"min_p,omitempty"`
}

// Generation is a fully resolved set of generation parameters.
type Generation struct {
	Temperature  float64
	MaxNewTokens int
	MinP         float64
}

// Description returns the trimmed business description and whether one was
// given at all.
func (r Request) Description() (string, bool) {
	if d := strings.TrimSpace(r.BusinessDescription); d != "" {
		return d, true
	}
	if d := strings.TrimSpace(r.Inputs); d != "" {
		return d, true
	}
	return "", false
}

// Resolve overlays p on defaults. A nil receiver returns defaults.
func (p *Parameters) Resolve(defaults Generation) (Generation, error) {
	out := defaults
	if p == nil {
		return out, nil
	}
	if p.Temperature != nil {
		out.Temperature = *p.Temperature
	}
	if p.MaxNewTokens != nil {
		out.MaxNewTokens = *p.MaxNewTokens
	}
	if p.MinP != nil {
		out.MinP = *p.MinP
	}

	var errs []error
	if out.Temperature < 0 {
		errs = append(errs, errors.New("temperature must not be negative"))
	}
	if out.MaxNewTokens <= 0 {
		errs = append(errs, errors.New("max_new_tokens must be positive"))
	}
	if out.MinP < 0 || out.MinP > 1 {
		errs = append(errs, errors.New("min_p must be between 0 and 1"))
	}
	return out, errors.Join(errs...)
}
