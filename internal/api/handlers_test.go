package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aapm/scce/internal/calendar"
	"github.com/aapm/scce/internal/errs"
)

func TestInvalidfBuildsTaggedError(t *testing.T) {
	err := invalidf("bad value %d", 7)
	var tagged *errs.Error
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, errs.KindInvalid, tagged.Kind)
	assert.Equal(t, "bad value 7", tagged.Message)
}

func TestBlockForDateRejectsMalformedDate(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/block?date=not-a-date", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &Handlers{calendar: calendar.New()}
	require.NoError(t, h.BlockForDate(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockForDateReturnsSpan(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/calendar/block?date=2025-07-15", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := &Handlers{calendar: calendar.New()}
	require.NoError(t, h.BlockForDate(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Error)
}
