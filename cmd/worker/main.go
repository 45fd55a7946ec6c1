// Command worker runs the engine's asynq task queue consumer plus the
// robfig/cron-driven nightly/weekly triggers, fronting GenerateSchedule,
// ValidateSchedule, AnalyzeResilience, and MatchSwap so callers aren't
// blocked on a long solver run over HTTP. Grounded on the teacher's
// internal/job scheduler/handlers pattern (internal_teacher_v2/job), wired
// into its own cmd entrypoint the way the teacher's job package is wired
// from cmd/server in the v2 tree.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/aapm/scce/internal/config"
	"github.com/aapm/scce/internal/job"
	"github.com/aapm/scce/internal/logging"
	"github.com/aapm/scce/internal/metrics"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/repository/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	db, err := postgres.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	reg := metrics.New()

	scheduler, err := job.NewScheduler(cfg.Redis.Addr)
	if err != nil {
		return fmt.Errorf("connect job queue: %w", err)
	}
	defer scheduler.Close()

	// rollingPeriod is the window the nightly compliance sweep and weekly
	// resilience snapshot run against: the trailing 28-day block plus the
	// block ahead of it, wide enough to catch violations introduced by a
	// same-day swap or batch mutation.
	rollingPeriod := func() repository.Period {
		now := time.Now().UTC()
		return repository.Period{Start: now.AddDate(0, 0, -28), End: now.AddDate(0, 0, 28)}
	}

	trigger := job.NewPeriodicTrigger(scheduler, rollingPeriod)
	if err := trigger.Start(); err != nil {
		return fmt.Errorf("start periodic trigger: %w", err)
	}
	defer trigger.Stop()

	handlers := job.NewHandlers(db, reg)
	mux := asynq.NewServeMux()
	handlers.Register(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 10,
			},
		},
	)

	log.Info("starting worker", zap.String("redis_addr", cfg.Redis.Addr))
	if err := srv.Run(mux); err != nil {
		return fmt.Errorf("run worker: %w", err)
	}
	return nil
}
