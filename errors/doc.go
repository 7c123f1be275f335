// Package errors provides the structured error type shared by the typetag,
// hostvalue, wire and codec packages.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Every failure of a resolve, encode or decode call surfaces as
// exactly one *Error describing the failure kind and its context: the
// offending type name, the path inside the value, or the gap between the
// expected and available byte counts.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindUnsupportedType).
//		GoType("main.User").
//		Detail("not a scalar, list or map").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Truncated(errors.PhaseDecode, path, 4, 1)
//
// Kinds can be matched with the standard library:
//
//	if stderrors.Is(err, errors.ErrTruncated) { ... }
package errors
