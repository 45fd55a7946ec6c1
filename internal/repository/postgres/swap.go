package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// SwapRepository implements repository.SwapRepository for PostgreSQL.
type SwapRepository struct {
	q querier
}

const swapColumns = `id, source_person_id, source_week, target_person_id, target_week, type, status, created_at, preference_tags`

func (r *SwapRepository) Create(ctx context.Context, s *entity.SwapRecord) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = entity.Now()
	query := `INSERT INTO swap_records (` + swapColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.q.ExecContext(ctx, query, s.ID, s.SourcePersonID, s.SourceWeek, s.TargetPersonID, s.TargetWeek,
		string(s.Type), string(s.Status), s.CreatedAt, pq.Array(s.PreferenceTags))
	if err != nil {
		return fmt.Errorf("failed to create swap record: %w", err)
	}
	return nil
}

func (r *SwapRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SwapRecord, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+swapColumns+` FROM swap_records WHERE id = $1`, id)
	s, err := scanSwapRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &repository.NotFoundError{ResourceType: "SwapRecord", ResourceID: id.String()}
	}
	return s, err
}

func (r *SwapRepository) ListPending(ctx context.Context) ([]*entity.SwapRecord, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+swapColumns+` FROM swap_records WHERE status = $1`, string(entity.SwapPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending swaps: %w", err)
	}
	return scanSwapRows(rows)
}

func (r *SwapRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*entity.SwapRecord, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_records WHERE source_person_id = $1 OR target_person_id = $1`
	rows, err := r.q.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list swaps by person: %w", err)
	}
	return scanSwapRows(rows)
}

func (r *SwapRepository) Update(ctx context.Context, s *entity.SwapRecord) error {
	query := `
		UPDATE swap_records
		SET target_person_id=$2, target_week=$3, type=$4, status=$5, preference_tags=$6
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, s.ID, s.TargetPersonID, s.TargetWeek, string(s.Type), string(s.Status), pq.Array(s.PreferenceTags))
	if err != nil {
		return fmt.Errorf("failed to update swap record: %w", err)
	}
	return checkRowsAffected(result, "SwapRecord", s.ID.String())
}

func scanSwapRow(row scannable) (*entity.SwapRecord, error) {
	s := &entity.SwapRecord{}
	var swapType, status string
	var tags pq.StringArray
	if err := row.Scan(&s.ID, &s.SourcePersonID, &s.SourceWeek, &s.TargetPersonID, &s.TargetWeek,
		&swapType, &status, &s.CreatedAt, &tags); err != nil {
		return nil, fmt.Errorf("failed to scan swap record: %w", err)
	}
	s.Type = entity.SwapType(swapType)
	s.Status = entity.SwapStatus(status)
	s.PreferenceTags = []string(tags)
	return s, nil
}

func scanSwapRows(rows *sql.Rows) ([]*entity.SwapRecord, error) {
	defer rows.Close()
	var out []*entity.SwapRecord
	for rows.Next() {
		s, err := scanSwapRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
