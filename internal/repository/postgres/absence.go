package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// AbsenceRepository implements repository.AbsenceRepository for PostgreSQL.
type AbsenceRepository struct {
	q querier
}

const absenceColumns = `id, person_id, start_date, end_date, absence_type, is_blocking`

func (r *AbsenceRepository) Create(ctx context.Context, a *entity.Absence) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `INSERT INTO absences (` + absenceColumns + `) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.q.ExecContext(ctx, query, a.ID, a.PersonID, a.StartDate, a.EndDate, string(a.AbsenceType), a.IsBlocking)
	if err != nil {
		return fmt.Errorf("failed to create absence: %w", err)
	}
	return nil
}

func (r *AbsenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Absence, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+absenceColumns+` FROM absences WHERE id = $1`, id)
	a, err := scanAbsenceRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &repository.NotFoundError{ResourceType: "Absence", ResourceID: id.String()}
	}
	return a, err
}

func (r *AbsenceRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*entity.Absence, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+absenceColumns+` FROM absences WHERE person_id = $1`, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences by person: %w", err)
	}
	return scanAbsenceRows(rows)
}

func (r *AbsenceRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Absence, error) {
	query := `SELECT ` + absenceColumns + ` FROM absences WHERE start_date <= $2 AND end_date >= $1`
	rows, err := r.q.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list absences by date range: %w", err)
	}
	return scanAbsenceRows(rows)
}

func (r *AbsenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM absences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete absence: %w", err)
	}
	return checkRowsAffected(result, "Absence", id.String())
}

func scanAbsenceRow(row scannable) (*entity.Absence, error) {
	a := &entity.Absence{}
	var absenceType string
	if err := row.Scan(&a.ID, &a.PersonID, &a.StartDate, &a.EndDate, &absenceType, &a.IsBlocking); err != nil {
		return nil, fmt.Errorf("failed to scan absence: %w", err)
	}
	a.AbsenceType = entity.AbsenceType(absenceType)
	return a, nil
}

func scanAbsenceRows(rows *sql.Rows) ([]*entity.Absence, error) {
	defer rows.Close()
	var out []*entity.Absence
	for rows.Next() {
		a, err := scanAbsenceRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
