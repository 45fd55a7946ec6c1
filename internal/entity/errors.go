package entity

import "errors"

var (
	ErrInvalidSwapStateTransition = errors.New("entity: invalid swap status transition")
	ErrInvalidDateRange            = errors.New("entity: end date before start date")
	ErrUnknownPersonKind           = errors.New("entity: unknown person kind")
	ErrUnknownTimeOfDay            = errors.New("entity: unknown time of day")
	ErrUnknownActivityType         = errors.New("entity: unknown activity type")
	ErrMissingPGYLevel             = errors.New("entity: resident missing PGY level")
	ErrUnexpectedPGYLevel          = errors.New("entity: faculty must not carry a PGY level")
)

// ValidatePersonKind reports whether k is a recognized PersonKind.
func ValidatePersonKind(k PersonKind) error {
	switch k {
	case PersonKindResident, PersonKindFaculty:
		return nil
	default:
		return ErrUnknownPersonKind
	}
}

// ValidateTimeOfDay reports whether t is a recognized TimeOfDay.
func ValidateTimeOfDay(t TimeOfDay) error {
	switch t {
	case AM, PM:
		return nil
	default:
		return ErrUnknownTimeOfDay
	}
}

// ValidateActivityType reports whether a is a recognized ActivityType.
func ValidateActivityType(a ActivityType) error {
	switch a {
	case ActivityClinic, ActivityInpatient, ActivityProcedure, ActivityLecture, ActivityCall, ActivityAdmin:
		return nil
	default:
		return ErrUnknownActivityType
	}
}

// ValidatePerson checks the PGYLevel/Kind invariant.
func ValidatePerson(p *Person) error {
	if err := ValidatePersonKind(p.Kind); err != nil {
		return err
	}
	if p.Kind == PersonKindResident && p.PGYLevel == nil {
		return ErrMissingPGYLevel
	}
	if p.Kind == PersonKindFaculty && p.PGYLevel != nil {
		return ErrUnexpectedPGYLevel
	}
	return nil
}

// nextSwapStatus enumerates legal SwapStatus transitions.
var nextSwapStatus = map[SwapStatus][]SwapStatus{
	SwapPending:  {SwapApproved, SwapRejected},
	SwapApproved: {SwapCompleted},
}

// Advance transitions a SwapRecord to next, returning ErrInvalidSwapStateTransition
// if the move is not legal.
func (s *SwapRecord) Advance(next SwapStatus) error {
	for _, allowed := range nextSwapStatus[s.Status] {
		if allowed == next {
			s.Status = next
			return nil
		}
	}
	return ErrInvalidSwapStateTransition
}
