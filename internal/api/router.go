package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/aapm/scce/internal/logging"
	"github.com/aapm/scce/internal/metrics"
	"github.com/aapm/scce/internal/repository"
)

// Router wraps an *echo.Echo configured with the engine's middleware stack
// and route table. Grounded on the teacher's internal/api Router
// (internal_teacher_v2/api/router.go): Logger/Recover/CORS middleware, one
// echo.Group per resource.
type Router struct {
	echo *echo.Echo
}

// NewRouter builds a Router wired against db, with reg (may be nil) feeding
// per-request metrics and log injecting a *zap.Logger into every request's
// context.
func NewRouter(db repository.Database, reg *metrics.Registry, log *zap.Logger) *Router {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.WithLogger(c.Request().Context(), log)
			ctx = logging.WithRequestID(ctx, c.Response().Header().Get(echo.HeaderXRequestID))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(reg.Handler()))
	}

	h := NewHandlers(db, reg)

	e.GET("/api/health", h.Health)

	scheduleGroup := e.Group("/api/schedules")
	scheduleGroup.POST("/generate", h.GenerateSchedule)
	scheduleGroup.GET("/validate", h.ValidateSchedule)

	assignmentGroup := e.Group("/api/assignments")
	assignmentGroup.POST("/batch", h.BatchCreate)
	assignmentGroup.PATCH("/batch", h.BatchUpdate)
	assignmentGroup.DELETE("/batch", h.BatchDelete)

	e.GET("/api/swaps/:id/match", h.MatchSwap)
	e.GET("/api/resilience/:kind", h.AnalyzeResilience)
	e.GET("/api/calendar/block", h.BlockForDate)

	return &Router{echo: e}
}

// Start serves HTTP on addr, blocking until the server stops.
func (r *Router) Start(addr string) error {
	return r.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
