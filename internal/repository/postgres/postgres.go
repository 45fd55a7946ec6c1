// Package postgres implements the repository.Database port against
// PostgreSQL via database/sql and github.com/lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/aapm/scce/internal/repository"
)

// DB wraps a *sql.DB and assembles the per-entity repositories into the
// repository.Database port.
type DB struct {
	*sql.DB
}

// New opens a PostgreSQL connection and verifies it with a ping.
func New(connString string) (*DB, error) {
	sqldb, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{sqldb}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

func (db *DB) Health(ctx context.Context) error { return db.PingContext(ctx) }

func (db *DB) BeginTx(ctx context.Context) (repository.Transaction, error) {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &tx{sqlTx: sqlTx}, nil
}

func (db *DB) LoadPeriod(ctx context.Context, period repository.Period) (*repository.PeriodData, error) {
	return loadPeriod(ctx, db.DB, period)
}

func (db *DB) PersonRepository() repository.PersonRepository { return &PersonRepository{q: db.DB} }
func (db *DB) BlockRepository() repository.BlockRepository   { return &BlockRepository{q: db.DB} }
func (db *DB) RotationTemplateRepository() repository.RotationTemplateRepository {
	return &RotationTemplateRepository{q: db.DB}
}
func (db *DB) AssignmentRepository() repository.AssignmentRepository {
	return &AssignmentRepository{q: db.DB}
}
func (db *DB) AbsenceRepository() repository.AbsenceRepository { return &AbsenceRepository{q: db.DB} }
func (db *DB) PreloadRepository() repository.PreloadRepository { return &PreloadRepository{q: db.DB} }
func (db *DB) SwapRepository() repository.SwapRepository       { return &SwapRepository{q: db.DB} }

// querier is the subset of *sql.DB / *sql.Tx used by the per-entity
// repositories, letting them run unmodified inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// tx adapts a *sql.Tx to the repository.Transaction port.
type tx struct {
	sqlTx *sql.Tx
}

func (t *tx) Commit() error   { return t.sqlTx.Commit() }
func (t *tx) Rollback() error { return t.sqlTx.Rollback() }

func (t *tx) PersonRepository() repository.PersonRepository { return &PersonRepository{q: t.sqlTx} }
func (t *tx) BlockRepository() repository.BlockRepository   { return &BlockRepository{q: t.sqlTx} }
func (t *tx) RotationTemplateRepository() repository.RotationTemplateRepository {
	return &RotationTemplateRepository{q: t.sqlTx}
}
func (t *tx) AssignmentRepository() repository.AssignmentRepository {
	return &AssignmentRepository{q: t.sqlTx}
}
func (t *tx) AbsenceRepository() repository.AbsenceRepository { return &AbsenceRepository{q: t.sqlTx} }
func (t *tx) PreloadRepository() repository.PreloadRepository { return &PreloadRepository{q: t.sqlTx} }
func (t *tx) SwapRepository() repository.SwapRepository       { return &SwapRepository{q: t.sqlTx} }
