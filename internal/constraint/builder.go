package constraint

// Builder is a fluent constructor for a constraint.Spec; Build() produces
// the immutable Spec, ready for registry resolution or JSON persistence.
//
// Usage:
//
//	spec := constraint.NewBuilder().Hard().Name("Availability").
//		Type(constraint.TypeAvailability).Priority(constraint.PriorityCritical).
//		WithParameter("strict", true).Build()
type Builder struct {
	spec Spec
}

// NewBuilder returns an empty Builder with no parameters set.
func NewBuilder() *Builder {
	return &Builder{spec: Spec{Parameters: make(map[string]interface{})}}
}

// Hard marks the constraint under construction as a HardConstraint.
func (b *Builder) Hard() *Builder {
	b.spec.Type = KindHard
	return b
}

// Soft marks the constraint under construction as a SoftConstraint and sets
// its weight.
func (b *Builder) Soft(weight float64) *Builder {
	b.spec.Type = KindSoft
	b.spec.Weight = &weight
	return b
}

// Name sets the constraint's registry name.
func (b *Builder) Name(name string) *Builder {
	b.spec.Name = name
	return b
}

// Type sets the constraint_type classification.
func (b *Builder) Type(t Type) *Builder {
	b.spec.ConstraintType = t
	return b
}

// Priority sets the priority; meaningful for hard constraints only.
func (b *Builder) Priority(p Priority) *Builder {
	b.spec.Priority = p
	return b
}

// WithParameter sets a single named parameter.
func (b *Builder) WithParameter(key string, value interface{}) *Builder {
	b.spec.Parameters[key] = value
	return b
}

// Build returns the assembled Spec.
func (b *Builder) Build() Spec {
	return b.spec
}

// CompositeBuilder groups several Builder-produced Specs, useful for
// assembling a whole constraint profile (e.g. "default ACGME set") in one
// call.
type CompositeBuilder struct {
	specs []Spec
}

// NewCompositeBuilder returns an empty CompositeBuilder.
func NewCompositeBuilder() *CompositeBuilder {
	return &CompositeBuilder{}
}

// Add appends one Spec to the composite.
func (c *CompositeBuilder) Add(spec Spec) *CompositeBuilder {
	c.specs = append(c.specs, spec)
	return c
}

// Build returns a defensive copy of the accumulated Specs.
func (c *CompositeBuilder) Build() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Clone deep-copies a Spec, including its Parameters map, so mutating the
// clone never affects the original.
func Clone(s Spec) Spec {
	clone := s
	clone.Parameters = make(map[string]interface{}, len(s.Parameters))
	for k, v := range s.Parameters {
		clone.Parameters[k] = v
	}
	if s.Weight != nil {
		w := *s.Weight
		clone.Weight = &w
	}
	return clone
}
