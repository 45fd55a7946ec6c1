// Package memory implements the repository.Database port entirely in
// process memory, for unit tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aapm/scce/internal/entity"
	"github.com/aapm/scce/internal/repository"
)

// Store is the in-memory Entity Store. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	persons     map[uuid.UUID]*entity.Person
	blocks      map[uuid.UUID]*entity.Block
	templates   map[uuid.UUID]*entity.RotationTemplate
	assignments map[uuid.UUID]*entity.Assignment
	absences    map[uuid.UUID]*entity.Absence
	preloads    map[uuid.UUID]*entity.InpatientPreload
	callPreloads map[uuid.UUID]*entity.ResidentCallPreload
	swaps       map[uuid.UUID]*entity.SwapRecord
}

// New returns an empty in-memory Entity Store.
func New() *Store {
	return &Store{
		persons:      make(map[uuid.UUID]*entity.Person),
		blocks:       make(map[uuid.UUID]*entity.Block),
		templates:    make(map[uuid.UUID]*entity.RotationTemplate),
		assignments:  make(map[uuid.UUID]*entity.Assignment),
		absences:     make(map[uuid.UUID]*entity.Absence),
		preloads:     make(map[uuid.UUID]*entity.InpatientPreload),
		callPreloads: make(map[uuid.UUID]*entity.ResidentCallPreload),
		swaps:        make(map[uuid.UUID]*entity.SwapRecord),
	}
}

var _ repository.Database = (*Store)(nil)

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Health always reports healthy for the in-memory store.
func (s *Store) Health(ctx context.Context) error { return nil }

// BeginTx returns a transaction that operates directly on the store; Commit
// and Rollback are no-ops because every write already applied in place. This
// mirrors the teacher's in-memory repository, which favours simplicity for
// tests over snapshot isolation.
func (s *Store) BeginTx(ctx context.Context) (repository.Transaction, error) {
	return &tx{store: s}, nil
}

func (s *Store) LoadPeriod(ctx context.Context, period repository.Period) (*repository.PeriodData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := &repository.PeriodData{}
	for _, p := range s.persons {
		data.Persons = append(data.Persons, p)
	}
	for _, t := range s.templates {
		data.Templates = append(data.Templates, t)
	}
	for _, b := range s.blocks {
		if !b.Date.Before(period.Start) && !b.Date.After(period.End) {
			data.Blocks = append(data.Blocks, b)
		}
	}
	for _, a := range s.absences {
		if a.StartDate.Before(period.End) && !a.EndDate.Before(period.Start) {
			data.Absences = append(data.Absences, a)
		}
	}
	for _, p := range s.preloads {
		if p.StartDate.Before(period.End) && !p.EndDate.Before(period.Start) {
			data.Preloads = append(data.Preloads, p)
		}
	}
	for _, c := range s.callPreloads {
		if !c.CallDate.Before(period.Start) && !c.CallDate.After(period.End) {
			data.CallPreloads = append(data.CallPreloads, c)
		}
	}
	blockIDs := make(map[uuid.UUID]struct{}, len(data.Blocks))
	for _, b := range data.Blocks {
		blockIDs[b.ID] = struct{}{}
	}
	for _, a := range s.assignments {
		if _, ok := blockIDs[a.BlockID]; ok {
			data.Assignments = append(data.Assignments, a)
		}
	}

	return data, nil
}

func (s *Store) PersonRepository() repository.PersonRepository                     { return personRepo{s} }
func (s *Store) BlockRepository() repository.BlockRepository                       { return blockRepo{s} }
func (s *Store) RotationTemplateRepository() repository.RotationTemplateRepository { return templateRepo{s} }
func (s *Store) AssignmentRepository() repository.AssignmentRepository             { return assignmentRepo{s} }
func (s *Store) AbsenceRepository() repository.AbsenceRepository                   { return absenceRepo{s} }
func (s *Store) PreloadRepository() repository.PreloadRepository                   { return preloadRepo{s} }
func (s *Store) SwapRepository() repository.SwapRepository                         { return swapRepo{s} }

// tx is repository.Transaction backed directly by the enclosing Store.
type tx struct {
	store *Store
}

func (t *tx) Commit() error   { return nil }
func (t *tx) Rollback() error { return nil }

func (t *tx) PersonRepository() repository.PersonRepository       { return t.store.PersonRepository() }
func (t *tx) BlockRepository() repository.BlockRepository         { return t.store.BlockRepository() }
func (t *tx) RotationTemplateRepository() repository.RotationTemplateRepository {
	return t.store.RotationTemplateRepository()
}
func (t *tx) AssignmentRepository() repository.AssignmentRepository {
	return t.store.AssignmentRepository()
}
func (t *tx) AbsenceRepository() repository.AbsenceRepository { return t.store.AbsenceRepository() }
func (t *tx) PreloadRepository() repository.PreloadRepository { return t.store.PreloadRepository() }
func (t *tx) SwapRepository() repository.SwapRepository       { return t.store.SwapRepository() }

// --- persons ---

type personRepo struct{ s *Store }

func (r personRepo) Create(ctx context.Context, p *entity.Person) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = entity.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.persons[p.ID] = p
	return nil
}

func (r personRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Person, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.persons[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Person", ResourceID: id.String()}
	}
	return p, nil
}

func (r personRepo) GetByEmail(ctx context.Context, email string) (*entity.Person, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.persons {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Person", ResourceID: email}
}

func (r personRepo) ListByKind(ctx context.Context, kind entity.PersonKind) ([]*entity.Person, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Person
	for _, p := range r.s.persons {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r personRepo) Update(ctx context.Context, p *entity.Person) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.persons[p.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Person", ResourceID: p.ID.String()}
	}
	p.UpdatedAt = entity.Now()
	r.s.persons[p.ID] = p
	return nil
}

func (r personRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.persons[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Person", ResourceID: id.String()}
	}
	delete(r.s.persons, id)
	return nil
}

func (r personRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.persons)), nil
}

// --- blocks ---

type blockRepo struct{ s *Store }

func (r blockRepo) Create(ctx context.Context, b *entity.Block) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.s.blocks[b.ID] = b
	return nil
}

func (r blockRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.blocks[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Block", ResourceID: id.String()}
	}
	return b, nil
}

func (r blockRepo) GetByDateAndHalf(ctx context.Context, date time.Time, tod entity.TimeOfDay) (*entity.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.blocks {
		if b.Date.Equal(date) && b.TimeOfDay == tod {
			return b, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Block", ResourceID: date.String() + " " + string(tod)}
}

func (r blockRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Block, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Block
	for _, b := range r.s.blocks {
		if !b.Date.Before(start) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r blockRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.blocks)), nil
}

// --- rotation templates ---

type templateRepo struct{ s *Store }

func (r templateRepo) Create(ctx context.Context, t *entity.RotationTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.s.templates[t.ID] = t
	return nil
}

func (r templateRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.RotationTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.templates[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "RotationTemplate", ResourceID: id.String()}
	}
	return t, nil
}

func (r templateRepo) GetByAbbreviation(ctx context.Context, abbr string) (*entity.RotationTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.templates {
		if t.Abbreviation == abbr {
			return t, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "RotationTemplate", ResourceID: abbr}
}

func (r templateRepo) ListAll(ctx context.Context) ([]*entity.RotationTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.RotationTemplate, 0, len(r.s.templates))
	for _, t := range r.s.templates {
		out = append(out, t)
	}
	return out, nil
}

func (r templateRepo) Update(ctx context.Context, t *entity.RotationTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.templates[t.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "RotationTemplate", ResourceID: t.ID.String()}
	}
	r.s.templates[t.ID] = t
	return nil
}

func (r templateRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.templates)), nil
}

// --- assignments ---

type assignmentRepo struct{ s *Store }

func (r assignmentRepo) Create(ctx context.Context, a *entity.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	for _, existing := range r.s.assignments {
		if existing.BlockID == a.BlockID && existing.PersonID == a.PersonID {
			return &repository.ValidationError{Field: "person_id", Message: "assignment already exists for this block and person"}
		}
	}
	a.CreatedAt = entity.Now()
	a.UpdatedAt = a.CreatedAt
	r.s.assignments[a.ID] = a
	return nil
}

func (r assignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Assignment", ResourceID: id.String()}
	}
	return a, nil
}

func (r assignmentRepo) FindByBlockPerson(ctx context.Context, blockID, personID uuid.UUID) (*entity.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.assignments {
		if a.BlockID == blockID && a.PersonID == personID {
			return a, nil
		}
	}
	return nil, &repository.NotFoundError{ResourceType: "Assignment", ResourceID: blockID.String() + "/" + personID.String()}
}

func (r assignmentRepo) ListByPerson(ctx context.Context, personID uuid.UUID, start, end time.Time) ([]*entity.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Assignment
	for _, a := range r.s.assignments {
		if a.PersonID != personID {
			continue
		}
		b, ok := r.s.blocks[a.BlockID]
		if !ok || b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r assignmentRepo) ListByBlock(ctx context.Context, blockID uuid.UUID) ([]*entity.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Assignment
	for _, a := range r.s.assignments {
		if a.BlockID == blockID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r assignmentRepo) ListByPeriod(ctx context.Context, period repository.Period) ([]*entity.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Assignment
	for _, a := range r.s.assignments {
		b, ok := r.s.blocks[a.BlockID]
		if !ok || b.Date.Before(period.Start) || b.Date.After(period.End) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r assignmentRepo) Update(ctx context.Context, a *entity.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.assignments[a.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "Assignment", ResourceID: a.ID.String()}
	}
	a.UpdatedAt = entity.Now()
	r.s.assignments[a.ID] = a
	return nil
}

func (r assignmentRepo) UpdateAssignment(ctx context.Context, id uuid.UUID, patch repository.AssignmentPatch, expectedUpdatedAt time.Time) (*entity.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assignments[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Assignment", ResourceID: id.String()}
	}
	if !a.UpdatedAt.Equal(expectedUpdatedAt) {
		return nil, &repository.ConflictError{ResourceType: "Assignment", ResourceID: id.String()}
	}

	if patch.RotationTemplateID != nil {
		a.RotationTemplateID = patch.RotationTemplateID
	}
	if patch.Role != nil {
		a.Role = *patch.Role
	}
	if patch.ActivityOverride != nil {
		a.ActivityOverride = patch.ActivityOverride
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	if patch.OverrideReason != nil {
		a.OverrideReason = patch.OverrideReason
	}
	a.UpdatedAt = entity.Now()
	return a, nil
}

func (r assignmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.assignments[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Assignment", ResourceID: id.String()}
	}
	delete(r.s.assignments, id)
	return nil
}

func (r assignmentRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.assignments)), nil
}

// --- absences ---

type absenceRepo struct{ s *Store }

func (r absenceRepo) Create(ctx context.Context, a *entity.Absence) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.s.absences[a.ID] = a
	return nil
}

func (r absenceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Absence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.absences[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "Absence", ResourceID: id.String()}
	}
	return a, nil
}

func (r absenceRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*entity.Absence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Absence
	for _, a := range r.s.absences {
		if a.PersonID == personID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r absenceRepo) ListByDateRange(ctx context.Context, start, end time.Time) ([]*entity.Absence, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Absence
	for _, a := range r.s.absences {
		if a.StartDate.Before(end) && !a.EndDate.Before(start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r absenceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.absences[id]; !ok {
		return &repository.NotFoundError{ResourceType: "Absence", ResourceID: id.String()}
	}
	delete(r.s.absences, id)
	return nil
}

// --- preloads ---

type preloadRepo struct{ s *Store }

func (r preloadRepo) CreateInpatient(ctx context.Context, p *entity.InpatientPreload) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.preloads[p.ID] = p
	return nil
}

func (r preloadRepo) ListInpatientByDateRange(ctx context.Context, start, end time.Time) ([]*entity.InpatientPreload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.InpatientPreload
	for _, p := range r.s.preloads {
		if p.StartDate.Before(end) && !p.EndDate.Before(start) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r preloadRepo) CreateCall(ctx context.Context, p *entity.ResidentCallPreload) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.callPreloads[p.ID] = p
	return nil
}

func (r preloadRepo) ListCallByDateRange(ctx context.Context, start, end time.Time) ([]*entity.ResidentCallPreload, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.ResidentCallPreload
	for _, p := range r.s.callPreloads {
		if !p.CallDate.Before(start) && !p.CallDate.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- swaps ---

type swapRepo struct{ s *Store }

func (r swapRepo) Create(ctx context.Context, sw *entity.SwapRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sw.ID == uuid.Nil {
		sw.ID = uuid.New()
	}
	sw.CreatedAt = entity.Now()
	r.s.swaps[sw.ID] = sw
	return nil
}

func (r swapRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.SwapRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sw, ok := r.s.swaps[id]
	if !ok {
		return nil, &repository.NotFoundError{ResourceType: "SwapRecord", ResourceID: id.String()}
	}
	return sw, nil
}

func (r swapRepo) ListPending(ctx context.Context) ([]*entity.SwapRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.SwapRecord
	for _, sw := range r.s.swaps {
		if sw.Status == entity.SwapPending {
			out = append(out, sw)
		}
	}
	return out, nil
}

func (r swapRepo) ListByPerson(ctx context.Context, personID uuid.UUID) ([]*entity.SwapRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.SwapRecord
	for _, sw := range r.s.swaps {
		if sw.SourcePersonID == personID || (sw.TargetPersonID != nil && *sw.TargetPersonID == personID) {
			out = append(out, sw)
		}
	}
	return out, nil
}

func (r swapRepo) Update(ctx context.Context, sw *entity.SwapRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.swaps[sw.ID]; !ok {
		return &repository.NotFoundError{ResourceType: "SwapRecord", ResourceID: sw.ID.String()}
	}
	r.s.swaps[sw.ID] = sw
	return nil
}
