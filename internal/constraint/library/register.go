package library

import (
	"github.com/aapm/scce/internal/constraint"
)

// paramFloat reads a float64 parameter, tolerating the JSON-decoded
// float64-only numeric representation as well as a literal float64 passed
// programmatically; fallback is used when the key is absent.
func paramFloat(params map[string]interface{}, key string, fallback float64) float64 {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	f, ok := v.(float64)
	if !ok {
		return fallback
	}
	return f
}

func paramBool(params map[string]interface{}, key string, fallback bool) bool {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// Register populates reg with every constraint constructor this library
// provides, under the registry names their Name() methods return — the
// canonical set a fresh program configuration starts from.
func Register(reg *constraint.Registry) {
	reg.Register("Availability", func(params map[string]interface{}) (interface{}, error) {
		return NewAvailabilityConstraint(paramBool(params, "strict", true)), nil
	})
	reg.Register("OnePerBlock", func(params map[string]interface{}) (interface{}, error) {
		return NewOnePerBlockConstraint(), nil
	})
	reg.Register("TemplateCapacity", func(params map[string]interface{}) (interface{}, error) {
		return NewTemplateCapacityConstraint(), nil
	})
	reg.Register("EightyHourRollingWindow", func(params map[string]interface{}) (interface{}, error) {
		return NewEightyHourConstraint(paramFloat(params, "max_hours", 80.0)), nil
	})
	reg.Register("OneDayOffInSeven", func(params map[string]interface{}) (interface{}, error) {
		return NewOneInSevenConstraint(), nil
	})
	reg.Register("WednesdayAMInternOnly", func(params map[string]interface{}) (interface{}, error) {
		return NewWednesdayAMInternOnlyConstraint(), nil
	})
	reg.Register("InternWednesdayContinuity", func(params map[string]interface{}) (interface{}, error) {
		return NewInternContinuityConstraint(), nil
	})
	reg.Register("WednesdayPMLecture", func(params map[string]interface{}) (interface{}, error) {
		return NewWednesdayPMLecConstraint(), nil
	})
	reg.Register("NightFloatAMPattern", func(params map[string]interface{}) (interface{}, error) {
		return NewNightFloatSlotConstraint(), nil
	})
	reg.Register("SupervisionRatio", func(params map[string]interface{}) (interface{}, error) {
		return NewSupervisionRatioConstraint(), nil
	})
	reg.Register("SpecialtyPGYGate", func(params map[string]interface{}) (interface{}, error) {
		return NewSpecialtyGateConstraint(), nil
	})
	reg.Register("Equity", func(params map[string]interface{}) (interface{}, error) {
		return NewEquityConstraint(paramFloat(params, "weight", 1.0)), nil
	})
	reg.Register("PreferenceTrail", func(params map[string]interface{}) (interface{}, error) {
		return NewPreferenceTrailConstraint(paramFloat(params, "weight", 0.5), nil), nil
	})
	reg.Register("AvoidBackToBackCall", func(params map[string]interface{}) (interface{}, error) {
		return NewAvoidBackToBackCallConstraint(paramFloat(params, "weight", 2.0)), nil
	})
}

// DefaultHardNames lists the canonical hard-constraint set applied by a
// default program configuration. The order is not a priority order;
// diagnostics rank violations by severity instead.
var DefaultHardNames = []string{
	"Availability",
	"OnePerBlock",
	"TemplateCapacity",
	"SpecialtyPGYGate",
	"EightyHourRollingWindow",
	"OneDayOffInSeven",
	"SupervisionRatio",
	"WednesdayAMInternOnly",
	"InternWednesdayContinuity",
	"WednesdayPMLecture",
	"NightFloatAMPattern",
}

// DefaultSoftNames lists the canonical soft-constraint set.
var DefaultSoftNames = []string{
	"Equity",
	"PreferenceTrail",
	"AvoidBackToBackCall",
}
