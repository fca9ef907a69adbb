package vector

import "fmt"

// Kind enumerates the closed set of failure reasons every fallible
// operation in the index core can return. See spec.md §6/§7.
type Kind int

const (
	// DimensionMismatch means two vectors (or a vector and an index) disagree on length.
	DimensionMismatch Kind = iota
	// IndexFull means an index refused an insert because it is at capacity.
	IndexFull
	// InvalidVector means a vector carried a NaN or infinite element.
	InvalidVector
	// NotBuilt means an operation that requires Build to have run was attempted too early.
	NotBuilt
	// AlreadyBuilt means Build was called a second time on an index that forbids rebuilding.
	AlreadyBuilt
	// MetricUnset means a distance metric was never configured.
	MetricUnset
	// SerializationError wraps a dump/load failure.
	SerializationError
	// ParameterOutOfRange means a parameter record field failed validation.
	ParameterOutOfRange
)

func (k Kind) String() string {
	switch k {
	case DimensionMismatch:
		return "dimension mismatch"
	case IndexFull:
		return "index full"
	case InvalidVector:
		return "invalid vector"
	case NotBuilt:
		return "not built"
	case AlreadyBuilt:
		return "already built"
	case MetricUnset:
		return "metric unset"
	case SerializationError:
		return "serialization error"
	case ParameterOutOfRange:
		return "parameter out of range"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every fallible operation in the
// index core. Field carries extra context for SerializationError
// (the underlying message) and ParameterOutOfRange (the field name).
type Error struct {
	Kind  Kind
	Field string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Field)
}

// New builds an *Error of the given kind with an optional descriptive field.
func New(kind Kind, field string) *Error {
	return &Error{Kind: kind, Field: field}
}

// Is reports whether err is an *Error of the given kind, so callers
// can use errors.Is(err, vector.DimensionMismatch) via a sentinel
// wrapper would require a different pattern; instead callers type-assert:
//
//	var verr *vector.Error
//	if errors.As(err, &verr) && verr.Kind == vector.DimensionMismatch { ... }
func Is(err error, kind Kind) bool {
	verr, ok := err.(*Error)
	return ok && verr.Kind == kind
}
