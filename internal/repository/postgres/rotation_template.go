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

// RotationTemplateRepository implements repository.RotationTemplateRepository for PostgreSQL.
type RotationTemplateRepository struct {
	q querier
}

func (r *RotationTemplateRepository) Create(ctx context.Context, t *entity.RotationTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO rotation_templates (id, name, abbreviation, activity_type, allowed_person_types,
			min_pgy_level, max_pgy_level, required_specialties, time_of_day, counts_toward_physical_capacity, max_residents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.Name, t.Abbreviation, string(t.ActivityType), pq.Array(personKindStrings(t.AllowedPersonTypes)),
		t.MinPGYLevel, t.MaxPGYLevel, pq.Array(t.RequiredSpecialties), timeOfDayString(t.TimeOfDay),
		t.CountsTowardPhysicalCapacity, t.MaxResidents,
	)
	if err != nil {
		return fmt.Errorf("failed to create rotation template: %w", err)
	}
	return nil
}

func (r *RotationTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.RotationTemplate, error) {
	query := `
		SELECT id, name, abbreviation, activity_type, allowed_person_types, min_pgy_level, max_pgy_level,
			required_specialties, time_of_day, counts_toward_physical_capacity, max_residents
		FROM rotation_templates WHERE id = $1
	`
	return scanTemplate(r.q.QueryRowContext(ctx, query, id), id.String())
}

func (r *RotationTemplateRepository) GetByAbbreviation(ctx context.Context, abbr string) (*entity.RotationTemplate, error) {
	query := `
		SELECT id, name, abbreviation, activity_type, allowed_person_types, min_pgy_level, max_pgy_level,
			required_specialties, time_of_day, counts_toward_physical_capacity, max_residents
		FROM rotation_templates WHERE abbreviation = $1
	`
	return scanTemplate(r.q.QueryRowContext(ctx, query, abbr), abbr)
}

func (r *RotationTemplateRepository) ListAll(ctx context.Context) ([]*entity.RotationTemplate, error) {
	query := `
		SELECT id, name, abbreviation, activity_type, allowed_person_types, min_pgy_level, max_pgy_level,
			required_specialties, time_of_day, counts_toward_physical_capacity, max_residents
		FROM rotation_templates ORDER BY abbreviation
	`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rotation templates: %w", err)
	}
	defer rows.Close()

	var out []*entity.RotationTemplate
	for rows.Next() {
		t, err := scanTemplateRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RotationTemplateRepository) Update(ctx context.Context, t *entity.RotationTemplate) error {
	query := `
		UPDATE rotation_templates
		SET name=$2, abbreviation=$3, activity_type=$4, allowed_person_types=$5, min_pgy_level=$6,
			max_pgy_level=$7, required_specialties=$8, time_of_day=$9, counts_toward_physical_capacity=$10, max_residents=$11
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		t.ID, t.Name, t.Abbreviation, string(t.ActivityType), pq.Array(personKindStrings(t.AllowedPersonTypes)),
		t.MinPGYLevel, t.MaxPGYLevel, pq.Array(t.RequiredSpecialties), timeOfDayString(t.TimeOfDay),
		t.CountsTowardPhysicalCapacity, t.MaxResidents,
	)
	if err != nil {
		return fmt.Errorf("failed to update rotation template: %w", err)
	}
	return checkRowsAffected(result, "RotationTemplate", t.ID.String())
}

func (r *RotationTemplateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM rotation_templates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rotation templates: %w", err)
	}
	return count, nil
}

func personKindStrings(kinds []entity.PersonKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func timeOfDayString(t *entity.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanTemplateRow(row scannable) (*entity.RotationTemplate, error) {
	t := &entity.RotationTemplate{}
	var activityType string
	var allowedKinds pq.StringArray
	var requiredSpecialties pq.StringArray
	var tod *string

	if err := row.Scan(&t.ID, &t.Name, &t.Abbreviation, &activityType, &allowedKinds, &t.MinPGYLevel, &t.MaxPGYLevel,
		&requiredSpecialties, &tod, &t.CountsTowardPhysicalCapacity, &t.MaxResidents); err != nil {
		return nil, fmt.Errorf("failed to scan rotation template: %w", err)
	}
	t.ActivityType = entity.ActivityType(activityType)
	t.AllowedPersonTypes = make([]entity.PersonKind, len(allowedKinds))
	for i, k := range allowedKinds {
		t.AllowedPersonTypes[i] = entity.PersonKind(k)
	}
	t.RequiredSpecialties = []string(requiredSpecialties)
	if tod != nil {
		v := entity.TimeOfDay(*tod)
		t.TimeOfDay = &v
	}
	return t, nil
}

func scanTemplate(row *sql.Row, lookupKey string) (*entity.RotationTemplate, error) {
	t, err := scanTemplateRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &repository.NotFoundError{ResourceType: "RotationTemplate", ResourceID: lookupKey}
	}
	return t, err
}
