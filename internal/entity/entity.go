// Package entity defines the core data model of the schedule construction
// and compliance engine: people, half-day blocks, rotation templates,
// assignments, absences, preloads, and the records that track shift swaps.
//
// The Entity Store (internal/repository) is the sole writer of these types;
// every other package holds them as read-only values scoped to one request.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Date is a plain alias; half-day blocks use the date component and
// TimeOfDay for the half, never the wall-clock time component of time.Time.
type (
	Date = time.Time
)

// Now returns the current time truncated to UTC, the canonical timestamp
// used for CreatedAt/UpdatedAt across the engine.
func Now() time.Time {
	return time.Now().UTC()
}

// NowPtr is Now but returns a pointer, convenient for optional timestamp fields.
func NowPtr() *time.Time {
	t := Now()
	return &t
}

// PersonKind distinguishes residents from supervising faculty.
type PersonKind string

const (
	PersonKindResident PersonKind = "resident"
	PersonKindFaculty  PersonKind = "faculty"
)

// AdminType tags the administrative program a person's caps are governed by.
type AdminType string

const (
	AdminTypeGME AdminType = "GME"
	AdminTypeDFM AdminType = "DFM"
	AdminTypeSM  AdminType = "SM"
)

// TimeOfDay is the half of the day a Block covers.
type TimeOfDay string

const (
	AM TimeOfDay = "AM"
	PM TimeOfDay = "PM"
)

// Person is a resident or faculty member eligible for assignment.
//
// Invariant: PGYLevel is nil iff Kind == PersonKindFaculty. SupervisionRatio
// reports 1:2 for PGY-1 residents and 1:4 for everyone else, per ACGME.
type Person struct {
	ID         uuid.UUID
	Name       string
	Kind       PersonKind
	PGYLevel   *int // 1..3+, residents only
	Email      string
	Specialties map[string]struct{}
	FacultyRole string

	MinClinicHalfDaysPerWeek int
	MaxClinicHalfDaysPerWeek int
	AdminType                AdminType

	// Call counters carried from the Entity Store; the engine never updates
	// them and the equity constraint does not read them.
	SundayCallCount  int
	WeekdayCallCount int
	FMITWeeksCount   int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SupervisionRatio returns the ACGME-mandated faculty:resident ratio
// denominator for this person: 2 for PGY-1, 4 for everyone else.
func (p *Person) SupervisionRatio() int {
	if p.Kind == PersonKindResident && p.PGYLevel != nil && *p.PGYLevel == 1 {
		return 2
	}
	return 4
}

// IsPGY1 reports whether this person is a first-year resident.
func (p *Person) IsPGY1() bool {
	return p.Kind == PersonKindResident && p.PGYLevel != nil && *p.PGYLevel == 1
}

// HasSpecialty reports whether the person carries the given specialty tag.
func (p *Person) HasSpecialty(tag string) bool {
	_, ok := p.Specialties[tag]
	return ok
}

// Block is a single half-day scheduling unit: one calendar date, AM or PM.
//
// Invariant: (Date, TimeOfDay) is unique within the entity store.
type Block struct {
	ID          uuid.UUID
	Date        time.Time
	TimeOfDay   TimeOfDay
	BlockNumber int // academic block number, 0..13
	IsWeekend   bool
	IsHoliday   bool
	HolidayName *string
}

// Weekday is a convenience accessor over Block.Date.
func (b *Block) Weekday() time.Weekday {
	return b.Date.Weekday()
}

// IsWednesdayAM reports whether the block is the Wednesday-AM continuity slot.
func (b *Block) IsWednesdayAM() bool {
	return b.Weekday() == time.Wednesday && b.TimeOfDay == AM
}

// IsWednesdayPM reports whether the block is the Wednesday-PM lecture slot.
func (b *Block) IsWednesdayPM() bool {
	return b.Weekday() == time.Wednesday && b.TimeOfDay == PM
}

// ActivityType classifies what a RotationTemplate represents.
type ActivityType string

const (
	ActivityClinic    ActivityType = "clinic"
	ActivityInpatient ActivityType = "inpatient"
	ActivityProcedure ActivityType = "procedure"
	ActivityLecture   ActivityType = "lecture"
	ActivityCall      ActivityType = "call"
	ActivityAdmin     ActivityType = "admin"
)

// RotationTemplate (a.k.a. Activity) describes a schedulable rotation or
// activity that a Block can carry: its eligibility gates, capacity, and
// optional time-of-day restriction.
type RotationTemplate struct {
	ID           uuid.UUID
	Name         string
	Abbreviation string // upper-case canonical, e.g. "C", "LEC-PM", "NF"
	ActivityType ActivityType

	AllowedPersonTypes []PersonKind
	MinPGYLevel        *int
	MaxPGYLevel        *int
	RequiredSpecialties []string

	// TimeOfDay restricts the template to AM or PM; nil means "either", per
	// the documented open question in the original source.
	TimeOfDay *TimeOfDay

	CountsTowardPhysicalCapacity bool
	MaxResidents                 int // 0 means "use DefaultClinicCapacity"
}

// DefaultClinicCapacity is the default physical capacity for a clinic
// template that counts toward physical capacity but sets MaxResidents to 0.
const DefaultClinicCapacity = 6

// Capacity returns the effective capacity for this template.
func (t *RotationTemplate) Capacity() int {
	if t.MaxResidents > 0 {
		return t.MaxResidents
	}
	return DefaultClinicCapacity
}

// AllowsPerson reports whether kind is one of the template's allowed types.
func (t *RotationTemplate) AllowsPerson(kind PersonKind) bool {
	for _, k := range t.AllowedPersonTypes {
		if k == kind {
			return true
		}
	}
	return len(t.AllowedPersonTypes) == 0
}

// AssignmentRole is the capacity in which a person is assigned to a block.
type AssignmentRole string

const (
	RolePrimary    AssignmentRole = "primary"
	RoleSupervising AssignmentRole = "supervising"
	RoleBackup     AssignmentRole = "backup"
)

// AssignmentSource records how an Assignment came to exist.
type AssignmentSource string

const (
	SourcePreload AssignmentSource = "preload"
	SourceManual  AssignmentSource = "manual"
	SourceSolver  AssignmentSource = "solver"
	SourceTemplate AssignmentSource = "template"
)

// Assignment maps a person to a block under a rotation template.
//
// Invariant: (BlockID, PersonID) is unique. A non-override assignment must
// have the person available on the block per the availability matrix.
type Assignment struct {
	ID                  uuid.UUID
	BlockID             uuid.UUID
	PersonID            uuid.UUID
	RotationTemplateID  *uuid.UUID
	Role                AssignmentRole
	ActivityOverride    *string
	Notes               string
	OverrideReason      *string
	OverrideAcknowledgedAt *time.Time

	Confidence float64
	Score      float64

	Source    AssignmentSource
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOverride reports whether this assignment carries an override reason,
// exempting it from the plain availability invariant.
func (a *Assignment) IsOverride() bool {
	return a.OverrideReason != nil && *a.OverrideReason != ""
}

// AbsenceType classifies why a person is unavailable.
type AbsenceType string

const (
	AbsenceVacation   AbsenceType = "vacation"
	AbsenceDeployment AbsenceType = "deployment"
	AbsenceTDY        AbsenceType = "tdy"
	AbsenceMedical    AbsenceType = "medical"
)

// Absence is a date range during which a person is partly or fully
// unavailable. IsBlocking absences forbid assignment; non-blocking absences
// leave the person available and produce no warning.
//
// Invariant: EndDate >= StartDate.
type Absence struct {
	ID          uuid.UUID
	PersonID    uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	AbsenceType AbsenceType
	IsBlocking  bool
}

// Covers reports whether the absence's date range includes d (inclusive).
func (a *Absence) Covers(d time.Time) bool {
	day := d.Truncate(24 * time.Hour)
	start := a.StartDate.Truncate(24 * time.Hour)
	end := a.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

// InpatientRotationType enumerates the preserved-spelling inpatient
// rotation codes used by preload conversion.
type InpatientRotationType string

const (
	RotationFMIT   InpatientRotationType = "FMIT"
	RotationNF     InpatientRotationType = "NF"
	RotationPedW   InpatientRotationType = "PedW"
	RotationPedNF  InpatientRotationType = "PedNF"
	RotationKAP    InpatientRotationType = "KAP"
	RotationIM     InpatientRotationType = "IM"
	RotationLDNF   InpatientRotationType = "LDNF"
)

// InpatientPreload forces a person onto an inpatient rotation for a date
// range ahead of solver invocation; it converts into a hard availability
// override restricted to that rotation.
type InpatientPreload struct {
	ID           uuid.UUID
	PersonID     uuid.UUID
	RotationType InpatientRotationType
	StartDate    time.Time
	EndDate      time.Time
	FMITWeek     *int // 1..4, only meaningful when RotationType == FMIT
}

// CallType enumerates resident call preload kinds.
type CallType string

const (
	CallLD24Hr      CallType = "ld_24hr"
	CallNFCoverage  CallType = "nf_coverage"
	CallWeekend     CallType = "weekend"
)

// ResidentCallPreload pins a person to a call assignment on a single date.
type ResidentCallPreload struct {
	ID       uuid.UUID
	PersonID uuid.UUID
	CallDate time.Time
	CallType CallType
}

// HalfDaySource records where a persisted half-day view's activity came from.
type HalfDaySource string

const (
	HalfDaySourcePreload HalfDaySource = "preload"
	HalfDaySourceManual  HalfDaySource = "manual"
	HalfDaySourceSolver  HalfDaySource = "solver"
	HalfDaySourceTemplate HalfDaySource = "template"
)

// HalfDayAssignment is the persisted (person, date, time-of-day) view used
// by reporting collaborators. Unique on (PersonID, Date, TimeOfDay).
type HalfDayAssignment struct {
	ID         uuid.UUID
	PersonID   uuid.UUID
	Date       time.Time
	TimeOfDay  TimeOfDay
	ActivityID uuid.UUID
	Source     HalfDaySource
	IsOverride bool
}

// SwapType distinguishes a direct trade from one resident absorbing another's week.
type SwapType string

const (
	SwapOneToOne SwapType = "ONE_TO_ONE"
	SwapAbsorb   SwapType = "ABSORB"
)

// SwapStatus is the lifecycle state of a SwapRecord: PENDING -> (APPROVED|REJECTED) -> COMPLETED.
type SwapStatus string

const (
	SwapPending   SwapStatus = "PENDING"
	SwapApproved  SwapStatus = "APPROVED"
	SwapRejected  SwapStatus = "REJECTED"
	SwapCompleted SwapStatus = "COMPLETED"
)

// SwapRecord is a request to trade or absorb a week of coverage between two people.
type SwapRecord struct {
	ID             uuid.UUID
	SourcePersonID uuid.UUID
	SourceWeek     time.Time
	TargetPersonID *uuid.UUID
	TargetWeek     *time.Time
	Type           SwapType
	Status         SwapStatus
	CreatedAt      time.Time

	// FacultyPreferenceTags optionally influences auto-match scoring.
	PreferenceTags []string
}
