// Package repository defines the Entity Store port: the persistence
// boundary the scheduling core requires. Concrete implementations live in
// repository/memory (tests) and repository/postgres (production).
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
)

// Period is an inclusive [Start, End] date range used to scope a load.
type Period struct {
	Start time.Time
	End   time.Time
}

// PeriodData is the full set of entities needed to build a SchedulingContext
// for the given period.
type PeriodData struct {
	Persons     []*entity.Person
	Blocks      []*entity.Block
	Templates   []*entity.RotationTemplate
	Assignments []*entity.Assignment
	Absences    []*entity.Absence
	Preloads    []*entity.InpatientPreload
	CallPreloads []*entity.ResidentCallPreload
}

// Database is the full Entity Store port required by the engine.
type Database interface {
	BeginTx(ctx context.Context) (Transaction, error)

	LoadPeriod(ctx context.Context, period Period) (*PeriodData, error)

	PersonRepository() PersonRepository
	BlockRepository() BlockRepository
	RotationTemplateRepository() RotationTemplateRepository
	AssignmentRepository() AssignmentRepository
	AbsenceRepository() AbsenceRepository
	PreloadRepository() PreloadRepository
	SwapRepository() SwapRepository

	Close() error
	Health(ctx context.Context) error
}

// Transaction is a Database scoped to one atomic unit of work; the batch
// mutation pipeline (C9) and solver writeback (C7) both run inside one.
type Transaction interface {
	Commit() error
	Rollback() error

	PersonRepository() PersonRepository
	BlockRepository() BlockRepository
	RotationTemplateRepository() RotationTemplateRepository
	AssignmentRepository() AssignmentRepository
	AbsenceRepository() AbsenceRepository
	PreloadRepository() PreloadRepository
	SwapRepository() SwapRepository
}

// PersonRepository is data access for Person entities.
type PersonRepository interface {
	Create(ctx context.Context, p *entity.Person) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Person, error)
	GetByEmail(ctx context.Context, email string) (*entity.Person, error)
	ListByKind(ctx context.Context, kind entity.PersonKind) ([]*entity.Person, error)
	Update(ctx context.Context, p *entity.Person) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// BlockRepository is data access for Block entities.
type BlockRepository interface {
	Create(ctx context.Context, b *entity.Block) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Block, error)
	GetByDateAndHalf(ctx context.Context, date time.Time, tod entity.TimeOfDay) (*entity.Block, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Block, error)
	Count(ctx context.Context) (int64, error)
}

// RotationTemplateRepository is data access for RotationTemplate entities.
type RotationTemplateRepository interface {
	Create(ctx context.Context, t *entity.RotationTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.RotationTemplate, error)
	GetByAbbreviation(ctx context.Context, abbr string) (*entity.RotationTemplate, error)
	ListAll(ctx context.Context) ([]*entity.RotationTemplate, error)
	Update(ctx context.Context, t *entity.RotationTemplate) error
	Count(ctx context.Context) (int64, error)
}

// AssignmentPatch carries the mutable subset of Assignment fields accepted
// by UpdateAssignment.
type AssignmentPatch struct {
	RotationTemplateID *uuid.UUID
	Role               *entity.AssignmentRole
	ActivityOverride   *string
	Notes              *string
	OverrideReason     *string
}

// AssignmentRepository is data access for Assignment entities.
//
// UpdateAssignment implements optimistic locking: if expectedUpdatedAt does
// not match the value currently stored, it returns a ConflictError.
type AssignmentRepository interface {
	Create(ctx context.Context, a *entity.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error)
	FindByBlockPerson(ctx context.Context, blockID, personID uuid.UUID) (*entity.Assignment, error)
	ListByPerson(ctx context.Context, personID uuid.UUID, start, end time.Time) ([]*entity.Assignment, error)
	ListByBlock(ctx context.Context, blockID uuid.UUID) ([]*entity.Assignment, error)
	ListByPeriod(ctx context.Context, period Period) ([]*entity.Assignment, error)
	Update(ctx context.Context, a *entity.Assignment) error
	UpdateAssignment(ctx context.Context, id uuid.UUID, patch AssignmentPatch, expectedUpdatedAt time.Time) (*entity.Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// AbsenceRepository is data access for Absence entities.
type AbsenceRepository interface {
	Create(ctx context.Context, a *entity.Absence) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Absence, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*entity.Absence, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Absence, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PreloadRepository is data access for inpatient and call preloads.
type PreloadRepository interface {
	CreateInpatient(ctx context.Context, p *entity.InpatientPreload) error
	ListInpatientByDateRange(ctx context.Context, start, end time.Time) ([]*entity.InpatientPreload, error)
	CreateCall(ctx context.Context, p *entity.ResidentCallPreload) error
	ListCallByDateRange(ctx context.Context, start, end time.Time) ([]*entity.ResidentCallPreload, error)
}

// SwapRepository is data access for SwapRecord entities.
type SwapRepository interface {
	Create(ctx context.Context, s *entity.SwapRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SwapRecord, error)
	ListPending(ctx context.Context) ([]*entity.SwapRecord, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]*entity.SwapRecord, error)
	Update(ctx context.Context, s *entity.SwapRecord) error
}

// NotFoundError is returned when a lookup by ID/key finds no record.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.ResourceType + " " + e.ResourceID
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ValidationError is returned for malformed input rejected before storage.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// ConflictError is returned by UpdateAssignment when expectedUpdatedAt does
// not match the stored row, signalling a concurrent modification.
type ConflictError struct {
	ResourceType string
	ResourceID   string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.ResourceType + " " + e.ResourceID + " was modified concurrently"
}

// IsConflict reports whether err is a *ConflictError.
func IsConflict(err error) bool {
	_, ok := err.(*ConflictError)
	return ok
}
