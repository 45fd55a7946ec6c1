package logging

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDevelopmentAndProduction(t *testing.T) {
	dev, err := New("development")
	require.NoError(t, err)
	require.NotNil(t, dev)

	prod, err := New("production")
	require.NoError(t, err)
	require.NotNil(t, prod)

	unknown, err := New("")
	require.NoError(t, err)
	require.NotNil(t, unknown)
}

func TestWithLoggerAndFromContext(t *testing.T) {
	logger, err := New("development")
	require.NoError(t, err)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	got := FromContext(context.Background())
	assert.NotNil(t, got)
}

func TestPersonRefFormat(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "RES-11111111", PersonRef("resident", id))
	assert.Equal(t, "FAC-11111111", PersonRef("faculty", id))
	assert.Equal(t, "RES-11111111", PersonRef("", id))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Equal(t, "", RequestID(context.Background()))
}

func TestFieldsForEmptyWhenNoRequestID(t *testing.T) {
	assert.Nil(t, FieldsFor(context.Background()))
	ctx := WithRequestID(context.Background(), "req-456")
	assert.Len(t, FieldsFor(ctx), 1)
}
