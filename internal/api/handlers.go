package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/aapm/scce/internal/batch"
	"github.com/aapm/scce/internal/calendar"
	"github.com/aapm/scce/internal/errs"
	"github.com/aapm/scce/internal/generator"
	"github.com/aapm/scce/internal/logging"
	"github.com/aapm/scce/internal/metrics"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/resilience"
	"github.com/aapm/scce/internal/swap"
	"github.com/aapm/scce/internal/validator"
)

// Handlers groups every dependency the HTTP surface calls into, mirroring
// the teacher's ScheduleHandler-per-resource split (internal_teacher_v2/api
// /handlers/schedule.go) but collapsed into one struct since the SCCE's
// operation count is small enough that a struct-per-resource split would
// just be indirection.
type Handlers struct {
	generator *generator.Generator
	validator *validator.Validator
	batch     *batch.Pipeline
	matcher   *swap.Matcher
	calendar  *calendar.Calendar
	db        repository.Database
	metrics   *metrics.Registry
}

// NewHandlers wires a Handlers instance against db.
func NewHandlers(db repository.Database, reg *metrics.Registry) *Handlers {
	return &Handlers{
		generator: generator.New(db),
		validator: validator.New(),
		batch:     batch.New(db),
		matcher:   swap.New(db),
		calendar:  calendar.New(),
		db:        db,
		metrics:   reg,
	}
}

// Health handles GET /api/health.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.db.Health(c.Request().Context()); err != nil {
		return Fail(c, err)
	}
	return OK(c, map[string]string{"status": "ok"})
}

// generateScheduleRequest is POST /api/schedules/generate's body.
type generateScheduleRequest struct {
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	Solver      generator.SolverKind `json:"solver"`
	Seed        int64                `json:"seed"`
	TimeoutSecs int                  `json:"timeout_secs"`
	SoftWeights map[string]float64   `json:"soft_weights"`
	CreatedBy   uuid.UUID            `json:"created_by"`
}

// GenerateSchedule handles POST /api/schedules/generate.
func (h *Handlers) GenerateSchedule(c echo.Context) error {
	var req generateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, invalidf("invalid request body: %v", err))
	}

	timeout := 30 * time.Second
	if req.TimeoutSecs > 0 {
		timeout = time.Duration(req.TimeoutSecs) * time.Second
	}

	opts := generator.Options{
		Solver:      req.Solver,
		Seed:        req.Seed,
		Timeout:     timeout,
		SoftWeights: req.SoftWeights,
		CreatedBy:   req.CreatedBy,
	}
	period := repository.Period{Start: req.Start, End: req.End}

	start := time.Now()
	result := h.generator.GenerateSchedule(c.Request().Context(), period, opts)
	if h.metrics != nil {
		h.metrics.RecordGeneration(string(result.Status), string(opts.Solver), time.Since(start).Seconds())
	}
	if result.Error != nil {
		logging.FromContext(c.Request().Context()).Error("generate schedule failed")
		return Fail(c, result.Error)
	}
	return OK(c, result)
}

// validateScheduleRequest is the query shape for GET /api/schedules/validate.
type validateScheduleRequest struct {
	Start time.Time `query:"start"`
	End   time.Time `query:"end"`
}

// ValidateSchedule handles GET /api/schedules/validate.
func (h *Handlers) ValidateSchedule(c echo.Context) error {
	var req validateScheduleRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, invalidf("invalid query parameters: %v", err))
	}

	report, err := h.validator.Validate(c.Request().Context(), h.db, repository.Period{Start: req.Start, End: req.End})
	if err != nil {
		return Fail(c, err)
	}
	if h.metrics != nil {
		result := "clean"
		if len(report.Violations) > 0 {
			result = "violations"
		}
		h.metrics.RecordValidation(result, report.Metrics.ComplianceRate, len(report.Violations))
	}
	return OK(c, report)
}

// BatchCreate handles POST /api/assignments/batch.
func (h *Handlers) BatchCreate(c echo.Context) error {
	var body struct {
		Items []batch.CreateItem  `json:"items"`
		Opts  batch.CreateOptions `json:"opts"`
	}
	if err := c.Bind(&body); err != nil {
		return Fail(c, invalidf("invalid request body: %v", err))
	}

	result, err := h.batch.BatchCreate(c.Request().Context(), body.Items, body.Opts)
	if h.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if !result.Valid {
			outcome = "rejected"
		}
		h.metrics.RecordBatch("create", outcome)
	}
	if err != nil {
		return Fail(c, err)
	}
	if !result.Valid {
		return c.JSON(http.StatusUnprocessableEntity, Response{Data: result, Meta: metaFor(c)})
	}
	return Created(c, result)
}

// BatchUpdate handles PATCH /api/assignments/batch.
func (h *Handlers) BatchUpdate(c echo.Context) error {
	var body struct {
		Items []batch.UpdateItem  `json:"items"`
		Opts  batch.UpdateOptions `json:"opts"`
	}
	if err := c.Bind(&body); err != nil {
		return Fail(c, invalidf("invalid request body: %v", err))
	}

	result, err := h.batch.BatchUpdate(c.Request().Context(), body.Items, body.Opts)
	if h.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if len(result.Errors) > 0 {
			outcome = "partial"
		}
		h.metrics.RecordBatch("update", outcome)
	}
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, result)
}

// BatchDelete handles DELETE /api/assignments/batch.
func (h *Handlers) BatchDelete(c echo.Context) error {
	var body struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := c.Bind(&body); err != nil {
		return Fail(c, invalidf("invalid request body: %v", err))
	}

	result, err := h.batch.BatchDelete(c.Request().Context(), body.IDs)
	if h.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if len(result.Errors) > 0 {
			outcome = "partial"
		}
		h.metrics.RecordBatch("delete", outcome)
	}
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, result)
}

// MatchSwap handles GET /api/swaps/:id/match.
func (h *Handlers) MatchSwap(c echo.Context) error {
	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return Fail(c, invalidf("invalid swap id: %v", err))
	}

	opts := swap.DefaultOptions()
	if topK := c.QueryParam("top_k"); topK != "" {
		// best-effort; malformed values fall back to "no limit" rather than erroring.
		if n, convErr := strconv.Atoi(topK); convErr == nil && n > 0 {
			opts.TopK = n
		}
	}

	candidates, err := h.matcher.Match(c.Request().Context(), swapID, opts)
	if h.metrics != nil {
		h.metrics.RecordSwapMatch()
	}
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, candidates)
}

// AnalyzeResilience handles GET /api/resilience/:kind.
func (h *Handlers) AnalyzeResilience(c echo.Context) error {
	kind := c.Param("kind")
	var data interface{}

	switch kind {
	case "cascade":
		cfg := resilience.DefaultCascadeConfig()
		data = resilience.RunMonteCarlo(cfg, 100)
	case "n1":
		data = resilience.NewN1Analyzer()
	case "n2":
		data = resilience.NewN2Analyzer()
	default:
		return Fail(c, invalidf("unknown resilience analysis kind %q", kind))
	}

	if h.metrics != nil {
		h.metrics.RecordResilienceRun(kind, "")
	}
	return OK(c, data)
}

// BlockForDate handles GET /api/calendar/block?date=YYYY-MM-DD.
func (h *Handlers) BlockForDate(c echo.Context) error {
	dateStr := c.QueryParam("date")
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return Fail(c, invalidf("invalid date %q, want YYYY-MM-DD: %v", dateStr, err))
	}
	blockNumber, academicYear := h.calendar.BlockNumberForDate(d)
	span, err := h.calendar.BlockDates(blockNumber, academicYear)
	if err != nil {
		return Fail(c, err)
	}
	return OK(c, map[string]interface{}{
		"block_number":  blockNumber,
		"academic_year": academicYear,
		"block_half":    h.calendar.BlockHalf(d),
		"span":          span,
	})
}

// invalidf builds a KindInvalid tagged error from a formatted message, the
// request-validation counterpart to errs.Wrap for errors originating in the
// HTTP layer rather than a collaborator.
func invalidf(format string, args ...interface{}) error {
	return errs.New(errs.KindInvalid, fmt.Sprintf(format, args...), nil)
}
