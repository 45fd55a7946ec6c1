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

// AssignmentRepository implements repository.AssignmentRepository for PostgreSQL.
type AssignmentRepository struct {
	q querier
}

const assignmentColumns = `id, block_id, person_id, rotation_template_id, role, activity_override,
	notes, override_reason, override_acknowledged_at, confidence, score, source, created_by, created_at, updated_at`

const assignmentColumnsQualified = `a.id, a.block_id, a.person_id, a.rotation_template_id, a.role, a.activity_override,
	a.notes, a.override_reason, a.override_acknowledged_at, a.confidence, a.score, a.source, a.created_by, a.created_at, a.updated_at`

func (r *AssignmentRepository) Create(ctx context.Context, a *entity.Assignment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = entity.Now()
	a.UpdatedAt = a.CreatedAt

	query := `
		INSERT INTO assignments (` + assignmentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`
	_, err := r.q.ExecContext(ctx, query,
		a.ID, a.BlockID, a.PersonID, a.RotationTemplateID, string(a.Role), a.ActivityOverride,
		a.Notes, a.OverrideReason, a.OverrideAcknowledgedAt, a.Confidence, a.Score, string(a.Source),
		a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	return scanAssignment(row, id.String())
}

func (r *AssignmentRepository) FindByBlockPerson(ctx context.Context, blockID, personID uuid.UUID) (*entity.Assignment, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE block_id = $1 AND person_id = $2`, blockID, personID)
	return scanAssignment(row, blockID.String()+"/"+personID.String())
}

func (r *AssignmentRepository) ListByPerson(ctx context.Context, personID uuid.UUID, start, end time.Time) ([]*entity.Assignment, error) {
	query := `
		SELECT ` + assignmentColumnsQualified + `
		FROM assignments a JOIN blocks b ON b.id = a.block_id
		WHERE a.person_id = $1 AND b.date BETWEEN $2 AND $3
	`
	rows, err := r.q.QueryContext(ctx, query, personID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments by person: %w", err)
	}
	return scanAssignmentRows(rows)
}

func (r *AssignmentRepository) ListByBlock(ctx context.Context, blockID uuid.UUID) ([]*entity.Assignment, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE block_id = $1`, blockID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments by block: %w", err)
	}
	return scanAssignmentRows(rows)
}

func (r *AssignmentRepository) ListByPeriod(ctx context.Context, period repository.Period) ([]*entity.Assignment, error) {
	query := `
		SELECT ` + assignmentColumnsQualified + `
		FROM assignments a JOIN blocks b ON b.id = a.block_id
		WHERE b.date BETWEEN $1 AND $2
	`
	rows, err := r.q.QueryContext(ctx, query, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments by period: %w", err)
	}
	return scanAssignmentRows(rows)
}

func (r *AssignmentRepository) Update(ctx context.Context, a *entity.Assignment) error {
	a.UpdatedAt = entity.Now()
	query := `
		UPDATE assignments
		SET rotation_template_id=$2, role=$3, activity_override=$4, notes=$5, override_reason=$6,
			override_acknowledged_at=$7, confidence=$8, score=$9, updated_at=$10
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		a.ID, a.RotationTemplateID, string(a.Role), a.ActivityOverride, a.Notes, a.OverrideReason,
		a.OverrideAcknowledgedAt, a.Confidence, a.Score, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}
	return checkRowsAffected(result, "Assignment", a.ID.String())
}

func (r *AssignmentRepository) UpdateAssignment(ctx context.Context, id uuid.UUID, patch repository.AssignmentPatch, expectedUpdatedAt time.Time) (*entity.Assignment, error) {
	query := `
		UPDATE assignments SET
			rotation_template_id = COALESCE($2, rotation_template_id),
			role = COALESCE($3, role),
			activity_override = COALESCE($4, activity_override),
			notes = COALESCE($5, notes),
			override_reason = COALESCE($6, override_reason),
			updated_at = NOW()
		WHERE id = $1 AND updated_at = $7
	`
	var role *string
	if patch.Role != nil {
		s := string(*patch.Role)
		role = &s
	}
	result, err := r.q.ExecContext(ctx, query, id, patch.RotationTemplateID, role, patch.ActivityOverride,
		patch.Notes, patch.OverrideReason, expectedUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update assignment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, &repository.ConflictError{ResourceType: "Assignment", ResourceID: id.String()}
	}
	return r.GetByID(ctx, id)
}

func (r *AssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return checkRowsAffected(result, "Assignment", id.String())
}

func (r *AssignmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return count, nil
}

func scanAssignmentRow(row scannable) (*entity.Assignment, error) {
	a := &entity.Assignment{}
	var role, source string
	if err := row.Scan(&a.ID, &a.BlockID, &a.PersonID, &a.RotationTemplateID, &role, &a.ActivityOverride,
		&a.Notes, &a.OverrideReason, &a.OverrideAcknowledgedAt, &a.Confidence, &a.Score, &source,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan assignment: %w", err)
	}
	a.Role = entity.AssignmentRole(role)
	a.Source = entity.AssignmentSource(source)
	return a, nil
}

func scanAssignment(row *sql.Row, lookupKey string) (*entity.Assignment, error) {
	a, err := scanAssignmentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &repository.NotFoundError{ResourceType: "Assignment", ResourceID: lookupKey}
	}
	return a, err
}

func scanAssignmentRows(rows *sql.Rows) ([]*entity.Assignment, error) {
	defer rows.Close()
	var out []*entity.Assignment
	for rows.Next() {
		a, err := scanAssignmentRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
