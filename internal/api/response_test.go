package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/errs"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestOKWritesEnvelope(t *testing.T) {
	c, rec := newTestContext()
	require.NoError(t, OK(c, map[string]string{"status": "ok"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
}

func TestCreatedWritesEnvelope(t *testing.T) {
	c, rec := newTestContext()
	require.NoError(t, Created(c, map[string]string{"id": "1"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFailPreservesTaggedErrorMessage(t *testing.T) {
	c, rec := newTestContext()
	tagged := errs.New(errs.KindInvalid, "start must be before end", nil)
	require.NoError(t, Fail(c, tagged))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "start must be before end", resp.Error.Message)
	assert.Equal(t, "E_INVALID", resp.Error.Code)
}

func TestFailWrapsUntaggedError(t *testing.T) {
	c, rec := newTestContext()
	require.NoError(t, Fail(c, assertionError("connection refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "connection refused", resp.Error.Message)
}

func TestStatusForEveryKind(t *testing.T) {
	cases := map[errs.Kind]int{
		errs.KindNotFound:            http.StatusNotFound,
		errs.KindConflict:            http.StatusConflict,
		errs.KindInvalid:             http.StatusBadRequest,
		errs.KindConstraintViolation: http.StatusUnprocessableEntity,
		errs.KindInfeasible:          http.StatusUnprocessableEntity,
		errs.KindTimeout:             http.StatusGatewayTimeout,
		errs.KindUnavailable:         http.StatusServiceUnavailable,
		errs.KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(kind), "kind %s", kind)
	}
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
