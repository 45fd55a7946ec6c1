// Package batch is the Batch Mutation Pipeline (C9): atomic
// create/update/delete over Assignment rows, with pre-validation, optimistic
// locking, and an optional ACGME pre-check run through the Compliance
// Validator (C8) before anything is written. Modelled on the teacher's
// transactional batch-write pattern in repository/postgres — one
// Transaction per call, rolled back whole on the first DB error — extended
// with the per-item duplicate/existence gate and compliance warnings spec.md
// §4.9 requires.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/constraint"
	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
	"github.com/aapm/scce/internal/schedcontext"
	"github.com/aapm/scce/internal/validator"
)

// MaxBatchSize is the largest number of items one call accepts, per
// spec.md §4.9.
const MaxBatchSize = 1000

// precheckMargin is how far outside the batch's own date span the ACGME
// pre-check's synthetic context is widened, so rolling-window constraints
// (80-hour window, 1-in-7) see the weeks surrounding the edits too.
const precheckMargin = 4 * 7 * 24 * time.Hour

// CreateItem is one proposed Assignment insert.
type CreateItem struct {
	BlockID            uuid.UUID
	PersonID           uuid.UUID
	RotationTemplateID *uuid.UUID
	Role               entity.AssignmentRole
	ActivityOverride   *string
	Notes              string
	OverrideReason     *string
	CreatedBy          uuid.UUID
}

// UpdateItem is one proposed Assignment patch, optimistically locked on
// ExpectedUpdatedAt.
type UpdateItem struct {
	ID                uuid.UUID
	Patch             repository.AssignmentPatch
	ExpectedUpdatedAt time.Time
}

// ItemError pins a validation or write failure to its position in the
// submitted batch.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// CreateOptions configures one BatchCreate call.
type CreateOptions struct {
	// SkipACGMECheck disables step 4's compliance pre-check entirely.
	SkipACGMECheck bool
	// StrictMode turns ACGME pre-check violations into blocking errors
	// instead of warnings.
	StrictMode bool
}

// CreateResult is the outcome of one BatchCreate call, populated whether or
// not the batch was ultimately written.
type CreateResult struct {
	Valid       bool
	Errors      []ItemError
	Warnings    []constraint.Violation
	Created     []*entity.Assignment
	FailedIndex int // -1 when every write succeeded
}

// Pipeline drives the batch operations against an Entity Store.
type Pipeline struct {
	db  repository.Database
	val *validator.Validator
}

// New returns a Pipeline wired to db with the canonical compliance profile.
func New(db repository.Database) *Pipeline {
	return &Pipeline{db: db, val: validator.New()}
}

// BatchCreate validates then atomically inserts items, per spec.md §4.9's
// create steps.
func (p *Pipeline) BatchCreate(ctx context.Context, items []CreateItem, opts CreateOptions) (*CreateResult, error) {
	result := &CreateResult{Valid: true, FailedIndex: -1}

	if len(items) == 0 {
		return result, nil
	}
	if len(items) > MaxBatchSize {
		return nil, fmt.Errorf("batch: %d items exceeds max batch size %d", len(items), MaxBatchSize)
	}

	// Step 2: intra-batch duplicate check.
	seen := make(map[pairKey]int, len(items))
	for i, item := range items {
		key := pairKey{item.PersonID, item.BlockID}
		if j, dup := seen[key]; dup {
			result.Errors = append(result.Errors, ItemError{Index: i, Err: fmt.Errorf("duplicate of item %d: same block and person", j)})
			continue
		}
		seen[key] = i
	}

	// Step 3: per-item existence checks.
	for i, item := range items {
		if _, err := p.db.BlockRepository().GetByID(ctx, item.BlockID); err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Err: fmt.Errorf("block %s: %w", item.BlockID, err)})
			continue
		}
		if _, err := p.db.PersonRepository().GetByID(ctx, item.PersonID); err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Err: fmt.Errorf("person %s: %w", item.PersonID, err)})
			continue
		}
		existing, err := p.db.AssignmentRepository().FindByBlockPerson(ctx, item.BlockID, item.PersonID)
		if err != nil && !repository.IsNotFound(err) {
			result.Errors = append(result.Errors, ItemError{Index: i, Err: err})
			continue
		}
		if existing != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Err: fmt.Errorf("assignment already exists for this block and person")})
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false
		return result, nil
	}

	// Step 4: optional ACGME pre-check.
	if !opts.SkipACGMECheck {
		warnings, err := p.precheck(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("batch: ACGME pre-check: %w", err)
		}
		result.Warnings = warnings
		if opts.StrictMode && len(warnings) > 0 {
			result.Valid = false
			return result, nil
		}
	}

	// Step 6: transactional insert.
	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch: begin transaction: %w", err)
	}
	now := entity.Now()
	created := make([]*entity.Assignment, 0, len(items))
	for i, item := range items {
		a := &entity.Assignment{
			ID:                 uuid.New(),
			BlockID:            item.BlockID,
			PersonID:           item.PersonID,
			RotationTemplateID: item.RotationTemplateID,
			Role:               item.Role,
			ActivityOverride:   item.ActivityOverride,
			Notes:              item.Notes,
			OverrideReason:     item.OverrideReason,
			Confidence:         1.0,
			Source:             entity.SourceManual,
			CreatedBy:          item.CreatedBy,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tx.AssignmentRepository().Create(ctx, a); err != nil {
			tx.Rollback()
			result.FailedIndex = i
			return result, fmt.Errorf("batch: insert item %d: %w", i, err)
		}
		created = append(created, a)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("batch: commit transaction: %w", err)
	}

	result.Created = created
	return result, nil
}

// UpdateOptions configures one BatchUpdate call.
type UpdateOptions struct {
	// AllOrNothing aborts the whole batch on the first optimistic-lock
	// conflict instead of recording a per-item error and continuing.
	AllOrNothing bool
}

// UpdateResult is the outcome of one BatchUpdate call.
type UpdateResult struct {
	Updated []*entity.Assignment
	Errors  []ItemError
}

// BatchUpdate applies patches under optimistic locking, per spec.md §4.9's
// update rules.
func (p *Pipeline) BatchUpdate(ctx context.Context, items []UpdateItem, opts UpdateOptions) (*UpdateResult, error) {
	result := &UpdateResult{}
	if len(items) == 0 {
		return result, nil
	}
	if len(items) > MaxBatchSize {
		return nil, fmt.Errorf("batch: %d items exceeds max batch size %d", len(items), MaxBatchSize)
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch: begin transaction: %w", err)
	}

	for i, item := range items {
		updated, err := tx.AssignmentRepository().UpdateAssignment(ctx, item.ID, item.Patch, item.ExpectedUpdatedAt)
		if err != nil {
			if opts.AllOrNothing {
				tx.Rollback()
				return nil, fmt.Errorf("batch: update item %d: %w", i, err)
			}
			result.Errors = append(result.Errors, ItemError{Index: i, Err: err})
			continue
		}
		result.Updated = append(result.Updated, updated)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("batch: commit transaction: %w", err)
	}
	return result, nil
}

// DeleteResult is the outcome of one BatchDelete call.
type DeleteResult struct {
	Deleted []uuid.UUID
	Errors  []ItemError
}

// BatchDelete verifies existence per id, then deletes within one
// transaction, per spec.md §4.9's delete rule.
func (p *Pipeline) BatchDelete(ctx context.Context, ids []uuid.UUID) (*DeleteResult, error) {
	result := &DeleteResult{}
	if len(ids) == 0 {
		return result, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("batch: %d items exceeds max batch size %d", len(ids), MaxBatchSize)
	}

	for i, id := range ids {
		if _, err := p.db.AssignmentRepository().GetByID(ctx, id); err != nil {
			result.Errors = append(result.Errors, ItemError{Index: i, Err: err})
		}
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("batch: begin transaction: %w", err)
	}
	for _, id := range ids {
		if err := tx.AssignmentRepository().Delete(ctx, id); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("batch: delete %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("batch: commit transaction: %w", err)
	}

	result.Deleted = append(result.Deleted, ids...)
	return result, nil
}

type pairKey struct {
	PersonID uuid.UUID
	BlockID  uuid.UUID
}

// precheck assembles a synthetic context (surrounding period's existing
// assignments plus the batch's proposed inserts) and runs it through the
// Compliance Validator, widening the window by precheckMargin on each side
// so rolling-window constraints see full context, per spec.md §4.9 step 4.
func (p *Pipeline) precheck(ctx context.Context, items []CreateItem) ([]constraint.Violation, error) {
	blocks := make([]*entity.Block, 0, len(items))
	blockSeen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if blockSeen[item.BlockID] {
			continue
		}
		blockSeen[item.BlockID] = true
		b, err := p.db.BlockRepository().GetByID(ctx, item.BlockID)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	if len(blocks) == 0 {
		return nil, nil
	}

	minDate, maxDate := blocks[0].Date, blocks[0].Date
	for _, b := range blocks[1:] {
		if b.Date.Before(minDate) {
			minDate = b.Date
		}
		if b.Date.After(maxDate) {
			maxDate = b.Date
		}
	}
	period := repository.Period{Start: minDate.Add(-precheckMargin), End: maxDate.Add(precheckMargin)}

	data, err := p.db.LoadPeriod(ctx, period)
	if err != nil {
		return nil, err
	}

	now := entity.Now()
	synthetic := make([]*entity.Assignment, 0, len(items))
	for _, item := range items {
		synthetic = append(synthetic, &entity.Assignment{
			ID:                 uuid.New(),
			BlockID:            item.BlockID,
			PersonID:           item.PersonID,
			RotationTemplateID: item.RotationTemplateID,
			Role:               item.Role,
			OverrideReason:     item.OverrideReason,
			Source:             entity.SourceManual,
			CreatedBy:          item.CreatedBy,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}
	data.Assignments = append(append([]*entity.Assignment(nil), data.Assignments...), synthetic...)

	sctx := schedcontext.Build(data)
	report, err := p.val.ValidateContext(sctx)
	if err != nil {
		return nil, err
	}
	return report.Violations, nil
}
