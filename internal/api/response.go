// Package api is the thin operational HTTP surface over the engine's public
// operations (GenerateSchedule, ValidateSchedule, BatchCreate/Update/Delete,
// MatchSwap, AnalyzeResilience, the academic-calendar helpers), exposed with
// github.com/labstack/echo/v4. Grounded on the teacher's internal/api
// package (internal_teacher_v2/api/router.go, response.go, handlers/): the
// same envelope response shape, the same echo.Group-per-resource routing
// style, and the same Logger/Recover/CORS middleware stack — generalized
// from the teacher's ODS-import/coverage surface to spec.md §6's operation
// list.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aapm/scce/internal/errs"
)

// Response is the standard envelope every endpoint returns.
type Response struct {
	Data  interface{}    `json:"data,omitempty"`
	Error *ErrorEnvelope `json:"error,omitempty"`
	Meta  Meta           `json:"meta"`
}

// ErrorEnvelope carries a tagged error's stable machine code and a
// human-readable, PII-free message — never a raw Go error string.
type ErrorEnvelope struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta is response metadata common to every envelope.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func metaFor(c echo.Context) Meta {
	return Meta{Timestamp: time.Now().UTC(), RequestID: c.Response().Header().Get(echo.HeaderXRequestID)}
}

// OK writes a 200 envelope wrapping data.
func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Data: data, Meta: metaFor(c)})
}

// Created writes a 201 envelope wrapping data.
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Response{Data: data, Meta: metaFor(c)})
}

// Fail writes an error envelope, choosing the HTTP status from the tagged
// error's Kind per spec.md §7 ("every error carries a stable machine code").
func Fail(c echo.Context, err error) error {
	var tagged *errs.Error
	if !errors.As(err, &tagged) {
		tagged = errs.Wrap(err.Error(), err)
	}

	return c.JSON(statusFor(tagged.Kind), Response{
		Error: &ErrorEnvelope{Kind: string(tagged.Kind), Code: tagged.Code, Message: tagged.Message},
		Meta:  metaFor(c),
	})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindInvalid:
		return http.StatusBadRequest
	case errs.KindConstraintViolation:
		return http.StatusUnprocessableEntity
	case errs.KindInfeasible:
		return http.StatusUnprocessableEntity
	case errs.KindTimeout:
		return http.StatusGatewayTimeout
	case errs.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
