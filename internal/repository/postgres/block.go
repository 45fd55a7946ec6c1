package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// BlockRepository implements repository.BlockRepository for PostgreSQL.
type BlockRepository struct {
	q querier
}

func (r *BlockRepository) Create(ctx context.Context, b *entity.Block) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	query := `
		INSERT INTO blocks (id, date, time_of_day, block_number, is_weekend, is_holiday, holiday_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query, b.ID, b.Date, string(b.TimeOfDay), b.BlockNumber, b.IsWeekend, b.IsHoliday, b.HolidayName)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

func (r *BlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Block, error) {
	query := `SELECT id, date, time_of_day, block_number, is_weekend, is_holiday, holiday_name FROM blocks WHERE id = $1`
	return scanBlock(r.q.QueryRowContext(ctx, query, id), id.String())
}

func (r *BlockRepository) GetByDateAndHalf(ctx context.Context, date time.Time, tod entity.TimeOfDay) (*entity.Block, error) {
	query := `SELECT id, date, time_of_day, block_number, is_weekend, is_holiday, holiday_name FROM blocks WHERE date = $1 AND time_of_day = $2`
	return scanBlock(r.q.QueryRowContext(ctx, query, date, string(tod)), date.String()+" "+string(tod))
}

func (r *BlockRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Block, error) {
	query := `
		SELECT id, date, time_of_day, block_number, is_weekend, is_holiday, holiday_name
		FROM blocks WHERE date BETWEEN $1 AND $2 ORDER BY date, time_of_day
	`
	rows, err := r.q.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var out []*entity.Block
	for rows.Next() {
		b := &entity.Block{}
		var tod string
		if err := rows.Scan(&b.ID, &b.Date, &tod, &b.BlockNumber, &b.IsWeekend, &b.IsHoliday, &b.HolidayName); err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		b.TimeOfDay = entity.TimeOfDay(tod)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BlockRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count blocks: %w", err)
	}
	return count, nil
}

func scanBlock(row *sql.Row, lookupKey string) (*entity.Block, error) {
	b := &entity.Block{}
	var tod string
	err := row.Scan(&b.ID, &b.Date, &tod, &b.BlockNumber, &b.IsWeekend, &b.IsHoliday, &b.HolidayName)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Block", ResourceID: lookupKey}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	b.TimeOfDay = entity.TimeOfDay(tod)
	return b, nil
}
