package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/repository"
)

func TestNewCarriesStableCode(t *testing.T) {
	err := New(KindConflict, "optimistic lock failed", nil)
	assert.Equal(t, "E_CONFLICT_OPTIMISTIC_LOCK", err.Code)
	assert.Equal(t, KindConflict, err.Kind)
	assert.Contains(t, err.Error(), "optimistic lock failed")
}

func TestUnwrapComposesWithErrorsIs(t *testing.T) {
	sentinel := errors.New("boom")
	err := New(KindInternal, "wrapped", sentinel)
	assert.True(t, errors.Is(err, sentinel))
}

func TestIs(t *testing.T) {
	err := New(KindTimeout, "solver deadline exceeded", nil)
	assert.True(t, Is(err, KindTimeout))
	assert.False(t, Is(err, KindInfeasible))
	assert.False(t, Is(errors.New("plain"), KindTimeout))
}

func TestClassifyNotFound(t *testing.T) {
	nf := &repository.NotFoundError{ResourceType: "Person", ResourceID: "abc"}
	assert.Equal(t, KindNotFound, Classify(nf))
}

func TestClassifyConflict(t *testing.T) {
	c := &repository.ConflictError{ResourceType: "Assignment", ResourceID: "abc"}
	assert.Equal(t, KindConflict, Classify(c))
}

func TestClassifyValidation(t *testing.T) {
	v := &repository.ValidationError{Message: "bad field", Field: "start_date"}
	assert.Equal(t, KindInvalid, Classify(v))
}

func TestClassifyPreservesExistingTag(t *testing.T) {
	tagged := New(KindConstraintViolation, "hard constraint violated", nil)
	assert.Equal(t, KindConstraintViolation, Classify(tagged))
}

func TestClassifyUnknownFallsBackToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, Classify(errors.New("mystery failure")))
}

func TestClassifyNil(t *testing.T) {
	assert.Equal(t, Kind(""), Classify(nil))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap("message", nil))
}

func TestWrapClassifiesAndPreservesMessage(t *testing.T) {
	nf := &repository.NotFoundError{ResourceType: "Block", ResourceID: "42"}
	wrapped := Wrap("lookup failed", nf)
	require.NotNil(t, wrapped)
	assert.Equal(t, KindNotFound, wrapped.Kind)
	assert.Equal(t, "lookup failed", wrapped.Message)
	assert.Same(t, nf, wrapped.Cause)
}
