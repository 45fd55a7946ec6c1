package postgres

import (
	"context"
	"fmt"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// loadPeriod fan-outs the per-entity queries LoadPeriod needs across a
// single querier (either the raw *sql.DB or an in-flight *sql.Tx).
func loadPeriod(ctx context.Context, q querier, period repository.Period) (*repository.PeriodData, error) {
	data := &repository.PeriodData{}

	blocks, err := (&BlockRepository{q: q}).ListByDateRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}
	data.Blocks = blocks

	persons, err := listAllPersons(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load persons: %w", err)
	}
	data.Persons = persons

	templates, err := (&RotationTemplateRepository{q: q}).ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rotation templates: %w", err)
	}
	data.Templates = templates

	assignments, err := (&AssignmentRepository{q: q}).ListByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	data.Assignments = assignments

	absences, err := (&AbsenceRepository{q: q}).ListByDateRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load absences: %w", err)
	}
	data.Absences = absences

	preloadRepo := &PreloadRepository{q: q}
	preloads, err := preloadRepo.ListInpatientByDateRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load inpatient preloads: %w", err)
	}
	data.Preloads = preloads

	callPreloads, err := preloadRepo.ListCallByDateRange(ctx, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load call preloads: %w", err)
	}
	data.CallPreloads = callPreloads

	return data, nil
}

func listAllPersons(ctx context.Context, q querier) ([]*entity.Person, error) {
	residents, err := (&PersonRepository{q: q}).ListByKind(ctx, entity.PersonKindResident)
	if err != nil {
		return nil, err
	}
	faculty, err := (&PersonRepository{q: q}).ListByKind(ctx, entity.PersonKindFaculty)
	if err != nil {
		return nil, err
	}
	return append(residents, faculty...), nil
}
