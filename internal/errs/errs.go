// Package errs defines the tagged error kinds spec.md §7 requires: every
// error the engine returns to a caller carries one of these Kinds and a
// stable machine code, instead of a raw string. Collaborators (the HTTP
// surface in internal/api, the job handlers in internal/job) map Kind to a
// transport-specific status; the engine itself never does.
package errs

import (
	"errors"
	"fmt"

	"github.com/aapm/scce/internal/repository"
)

// Kind is one of the error kinds spec.md §7 enumerates.
type Kind string

const (
	KindNotFound            Kind = "NotFound"
	KindConflict            Kind = "Conflict"
	KindInvalid             Kind = "Invalid"
	KindConstraintViolation Kind = "ConstraintViolation"
	KindInfeasible          Kind = "Infeasible"
	KindTimeout             Kind = "Timeout"
	KindUnavailable         Kind = "Unavailable"
	KindInternal            Kind = "Internal"
)

// codes is the stable machine code per Kind, e.g. E_CONFLICT_OPTIMISTIC_LOCK.
var codes = map[Kind]string{
	KindNotFound:            "E_NOT_FOUND",
	KindConflict:            "E_CONFLICT_OPTIMISTIC_LOCK",
	KindInvalid:             "E_INVALID",
	KindConstraintViolation: "E_CONSTRAINT_VIOLATION",
	KindInfeasible:          "E_INFEASIBLE",
	KindTimeout:             "E_TIMEOUT",
	KindUnavailable:         "E_UNAVAILABLE",
	KindInternal:            "E_INTERNAL",
}

// Error is a tagged, PII-free value carrying a Kind, a stable machine code,
// and a human message. It wraps an underlying cause so errors.Is/As compose
// across package boundaries, the way repository.NotFoundError/ConflictError
// already do.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a tagged Error of kind with message, optionally wrapping cause.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Code: codes[kind], Message: message, Cause: cause}
}

// Is reports whether err (or anything it wraps) is a tagged Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Classify maps a repository-layer error into the matching tagged Kind,
// falling back to Internal for anything unrecognized — the policy
// spec.md §7 states: unexpected states raise Internal, never a bare string.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case repository.IsNotFound(err):
		return KindNotFound
	case repository.IsConflict(err):
		return KindConflict
	default:
		var validationErr *repository.ValidationError
		if errors.As(err, &validationErr) {
			return KindInvalid
		}
		var tagged *Error
		if errors.As(err, &tagged) {
			return tagged.Kind
		}
		return KindInternal
	}
}

// Wrap classifies err via Classify and returns a tagged Error carrying
// message and the original err as Cause.
func Wrap(message string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(Classify(err), message, err)
}
