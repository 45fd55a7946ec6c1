package constraint_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/constraint"
)

func TestBuilderRoundTripsThroughJSON(t *testing.T) {
	spec := constraint.NewBuilder().
		Hard().
		Name("Availability").
		Type(constraint.TypeAvailability).
		Priority(constraint.PriorityCritical).
		WithParameter("strict", true).
		Build()

	data, err := jsonMarshal(spec)
	require.NoError(t, err)

	got, err := constraint.UnmarshalSpec(data)
	require.NoError(t, err)

	assert.Equal(t, spec.Name, got.Name)
	assert.Equal(t, spec.Type, got.Type)
	assert.Equal(t, spec.ConstraintType, got.ConstraintType)
	assert.Equal(t, spec.Priority, got.Priority)
	assert.Equal(t, true, got.Parameters["strict"])
}

func TestSoftSpecRequiresWeight(t *testing.T) {
	_, err := constraint.UnmarshalSpec([]byte(`{"type":"soft","name":"Equity","constraint_type":"EQUITY","parameters":{}}`))
	require.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	original := constraint.NewBuilder().Hard().Name("X").WithParameter("k", 1).Build()
	clone := constraint.Clone(original)
	clone.Parameters["k"] = 2

	assert.Equal(t, 1, original.Parameters["k"])
	assert.Equal(t, 2, clone.Parameters["k"])
}

func TestSortViolationsOrdering(t *testing.T) {
	t1 := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	violations := []constraint.Violation{
		{ConstraintName: "B", Severity: constraint.SeverityHigh, DateContext: &t2},
		{ConstraintName: "A", Severity: constraint.SeverityCritical, DateContext: &t1},
		{ConstraintName: "C", Severity: constraint.SeverityHigh, DateContext: &t1},
	}
	constraint.SortViolations(violations)

	require.Len(t, violations, 3)
	assert.Equal(t, "A", violations[0].ConstraintName)
	assert.Equal(t, "C", violations[1].ConstraintName)
	assert.Equal(t, "B", violations[2].ConstraintName)
}

func TestRegistryBuildUnknownName(t *testing.T) {
	reg := constraint.NewRegistry()
	_, err := reg.Build("NotRegistered", nil)
	require.Error(t, err)
}

// jsonMarshal avoids importing encoding/json twice across test files with
// differing aliasing; kept trivial on purpose.
func jsonMarshal(s constraint.Spec) ([]byte, error) {
	return s.MarshalJSON()
}
