package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
)

// PreloadRepository implements repository.PreloadRepository for PostgreSQL.
type PreloadRepository struct {
	q querier
}

func (r *PreloadRepository) CreateInpatient(ctx context.Context, p *entity.InpatientPreload) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `
		INSERT INTO inpatient_preloads (id, person_id, rotation_type, start_date, end_date, fmit_week)
		VALUES ($1,$2,$3,$4,$5,$6)
	`
	_, err := r.q.ExecContext(ctx, query, p.ID, p.PersonID, string(p.RotationType), p.StartDate, p.EndDate, p.FMITWeek)
	if err != nil {
		return fmt.Errorf("failed to create inpatient preload: %w", err)
	}
	return nil
}

func (r *PreloadRepository) ListInpatientByDateRange(ctx context.Context, start, end time.Time) ([]*entity.InpatientPreload, error) {
	query := `
		SELECT id, person_id, rotation_type, start_date, end_date, fmit_week
		FROM inpatient_preloads WHERE start_date <= $2 AND end_date >= $1
	`
	rows, err := r.q.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list inpatient preloads: %w", err)
	}
	defer rows.Close()

	var out []*entity.InpatientPreload
	for rows.Next() {
		p := &entity.InpatientPreload{}
		var rotationType string
		if err := rows.Scan(&p.ID, &p.PersonID, &rotationType, &p.StartDate, &p.EndDate, &p.FMITWeek); err != nil {
			return nil, fmt.Errorf("failed to scan inpatient preload: %w", err)
		}
		p.RotationType = entity.InpatientRotationType(rotationType)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PreloadRepository) CreateCall(ctx context.Context, p *entity.ResidentCallPreload) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `INSERT INTO resident_call_preloads (id, person_id, call_date, call_type) VALUES ($1,$2,$3,$4)`
	_, err := r.q.ExecContext(ctx, query, p.ID, p.PersonID, p.CallDate, string(p.CallType))
	if err != nil {
		return fmt.Errorf("failed to create call preload: %w", err)
	}
	return nil
}

func (r *PreloadRepository) ListCallByDateRange(ctx context.Context, start, end time.Time) ([]*entity.ResidentCallPreload, error) {
	query := `SELECT id, person_id, call_date, call_type FROM resident_call_preloads WHERE call_date BETWEEN $1 AND $2`
	rows, err := r.q.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list call preloads: %w", err)
	}
	defer rows.Close()

	var out []*entity.ResidentCallPreload
	for rows.Next() {
		p := &entity.ResidentCallPreload{}
		var callType string
		if err := rows.Scan(&p.ID, &p.PersonID, &p.CallDate, &callType); err != nil {
			return nil, fmt.Errorf("failed to scan call preload: %w", err)
		}
		p.CallType = entity.CallType(callType)
		out = append(out, p)
	}
	return out, rows.Err()
}
