package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// PersonRepository implements repository.PersonRepository for PostgreSQL.
type PersonRepository struct {
	q querier
}

func (r *PersonRepository) Create(ctx context.Context, p *entity.Person) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = entity.Now()
	p.UpdatedAt = p.CreatedAt

	query := `
		INSERT INTO persons (id, name, kind, pgy_level, email, specialties, faculty_role,
			min_clinic_half_days, max_clinic_half_days, admin_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.q.ExecContext(ctx, query,
		p.ID, p.Name, string(p.Kind), p.PGYLevel, p.Email, pq.Array(specialtyList(p)), p.FacultyRole,
		p.MinClinicHalfDaysPerWeek, p.MaxClinicHalfDaysPerWeek, string(p.AdminType), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (r *PersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Person, error) {
	query := `
		SELECT id, name, kind, pgy_level, email, specialties, faculty_role,
			min_clinic_half_days, max_clinic_half_days, admin_type, created_at, updated_at
		FROM persons WHERE id = $1
	`
	return scanPerson(r.q.QueryRowContext(ctx, query, id), id.String())
}

func (r *PersonRepository) GetByEmail(ctx context.Context, email string) (*entity.Person, error) {
	query := `
		SELECT id, name, kind, pgy_level, email, specialties, faculty_role,
			min_clinic_half_days, max_clinic_half_days, admin_type, created_at, updated_at
		FROM persons WHERE email = $1
	`
	return scanPerson(r.q.QueryRowContext(ctx, query, email), email)
}

func (r *PersonRepository) ListByKind(ctx context.Context, kind entity.PersonKind) ([]*entity.Person, error) {
	query := `
		SELECT id, name, kind, pgy_level, email, specialties, faculty_role,
			min_clinic_half_days, max_clinic_half_days, admin_type, created_at, updated_at
		FROM persons WHERE kind = $1
	`
	rows, err := r.q.QueryContext(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var out []*entity.Person
	for rows.Next() {
		p := &entity.Person{}
		var specialties pq.StringArray
		var kindStr, adminStr string
		if err := rows.Scan(&p.ID, &p.Name, &kindStr, &p.PGYLevel, &p.Email, &specialties, &p.FacultyRole,
			&p.MinClinicHalfDaysPerWeek, &p.MaxClinicHalfDaysPerWeek, &adminStr, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		p.Kind = entity.PersonKind(kindStr)
		p.AdminType = entity.AdminType(adminStr)
		p.Specialties = toSpecialtySet(specialties)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PersonRepository) Update(ctx context.Context, p *entity.Person) error {
	p.UpdatedAt = entity.Now()
	query := `
		UPDATE persons
		SET name=$2, kind=$3, pgy_level=$4, email=$5, specialties=$6, faculty_role=$7,
			min_clinic_half_days=$8, max_clinic_half_days=$9, admin_type=$10, updated_at=$11
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		p.ID, p.Name, string(p.Kind), p.PGYLevel, p.Email, pq.Array(specialtyList(p)), p.FacultyRole,
		p.MinClinicHalfDaysPerWeek, p.MaxClinicHalfDaysPerWeek, string(p.AdminType), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	return checkRowsAffected(result, "Person", p.ID.String())
}

func (r *PersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return checkRowsAffected(result, "Person", id.String())
}

func (r *PersonRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count persons: %w", err)
	}
	return count, nil
}

func specialtyList(p *entity.Person) []string {
	out := make([]string, 0, len(p.Specialties))
	for s := range p.Specialties {
		out = append(out, s)
	}
	return out
}

func toSpecialtySet(list []string) map[string]struct{} {
	out := make(map[string]struct{}, len(list))
	for _, s := range list {
		out[s] = struct{}{}
	}
	return out
}

func scanPerson(row *sql.Row, lookupKey string) (*entity.Person, error) {
	p := &entity.Person{}
	var specialties pq.StringArray
	var kindStr, adminStr string

	err := row.Scan(&p.ID, &p.Name, &kindStr, &p.PGYLevel, &p.Email, &specialties, &p.FacultyRole,
		&p.MinClinicHalfDaysPerWeek, &p.MaxClinicHalfDaysPerWeek, &adminStr, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &repository.NotFoundError{ResourceType: "Person", ResourceID: lookupKey}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}

	p.Kind = entity.PersonKind(kindStr)
	p.AdminType = entity.AdminType(adminStr)
	p.Specialties = toSpecialtySet(specialties)
	return p, nil
}

func checkRowsAffected(result sql.Result, resourceType, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return &repository.NotFoundError{ResourceType: resourceType, ResourceID: id}
	}
	return nil
}
