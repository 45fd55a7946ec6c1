package constraint

import (
	"encoding/json"
	"fmt"
)

// Kind distinguishes a serialised hard constraint from a soft one.
type Kind string

const (
	KindHard Kind = "hard"
	KindSoft Kind = "soft"
)

// Spec is the persisted JSON shape for a constraint configuration, per the
// schema external collaborators are required to preserve:
//
//	{ "type": "hard"|"soft", "name": "...", "constraint_type": "...",
//	  "priority": "CRITICAL|HIGH|MEDIUM|LOW", "weight": <number, soft only>,
//	  "parameters": { ... } }
type Spec struct {
	Type           Kind                   `json:"type"`
	Name           string                 `json:"name"`
	ConstraintType Type                   `json:"constraint_type"`
	Priority       Priority               `json:"priority,omitempty"`
	Weight         *float64               `json:"weight,omitempty"`
	Parameters     map[string]interface{} `json:"parameters"`
}

// SpecFromHard captures a HardConstraint's configuration as a Spec.
func SpecFromHard(c HardConstraint) Spec {
	return Spec{
		Type:           KindHard,
		Name:           c.Name(),
		ConstraintType: c.ConstraintType(),
		Priority:       c.Priority(),
		Parameters:     c.Parameters(),
	}
}

// SpecFromSoft captures a SoftConstraint's configuration as a Spec.
func SpecFromSoft(c SoftConstraint) Spec {
	w := c.Weight()
	return Spec{
		Type:           KindSoft,
		Name:           c.Name(),
		ConstraintType: c.ConstraintType(),
		Weight:         &w,
		Parameters:     c.Parameters(),
	}
}

// MarshalJSON serialises a Spec. A defined method purely for symmetry with
// UnmarshalSpec; the default struct tags already produce the right shape.
func (s Spec) MarshalJSON() ([]byte, error) {
	type alias Spec
	return json.Marshal(alias(s))
}

// UnmarshalSpec parses a persisted constraint JSON document.
func UnmarshalSpec(data []byte) (Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("constraint: failed to unmarshal spec: %w", err)
	}
	if s.Type != KindHard && s.Type != KindSoft {
		return Spec{}, fmt.Errorf("constraint: unknown type %q", s.Type)
	}
	if s.Type == KindSoft && s.Weight == nil {
		return Spec{}, fmt.Errorf("constraint: soft constraint %q missing weight", s.Name)
	}
	return s, nil
}

// Build resolves a Spec back into a live constraint via the registry,
// returning either a HardConstraint or a SoftConstraint as interface{}.
func (s Spec) Build(registry *Registry) (interface{}, error) {
	built, err := registry.Build(s.Name, s.Parameters)
	if err != nil {
		return nil, err
	}
	switch s.Type {
	case KindHard:
		if _, ok := built.(HardConstraint); !ok {
			return nil, fmt.Errorf("constraint: %q registered constructor did not produce a HardConstraint", s.Name)
		}
	case KindSoft:
		if _, ok := built.(SoftConstraint); !ok {
			return nil, fmt.Errorf("constraint: %q registered constructor did not produce a SoftConstraint", s.Name)
		}
	}
	return built, nil
}
