package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseResolve Phase = "resolve" // type descriptor to type tag
	PhaseEncode  Phase = "encode"  // host value to bytes
	PhaseDecode  Phase = "decode"  // bytes to host value
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedType  Kind = "unsupported_type"
	KindScalarConversion Kind = "scalar_conversion"
	KindTruncated        Kind = "truncated"
	KindTrailingData     Kind = "trailing_data"
	KindReflectionCall   Kind = "reflection_call"
	KindInvalidData      Kind = "invalid_data"
)

// Sentinels for errors.Is matching. They match any *Error of the same kind,
// regardless of phase or context.
var (
	ErrUnsupportedType  = &Error{Kind: KindUnsupportedType}
	ErrScalarConversion = &Error{Kind: KindScalarConversion}
	ErrTruncated        = &Error{Kind: KindTruncated}
	ErrTrailingData     = &Error{Kind: KindTrailingData}
	ErrReflectionCall   = &Error{Kind: KindReflectionCall}
	ErrInvalidData      = &Error{Kind: KindInvalidData}
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	GoType    string
	Tag       string
	Detail    string
	Path      []string
	Expected  int
	Available int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, ""))
	}

	if e.GoType != "" || e.Tag != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.Tag != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", tag ")
			b.WriteString(e.Tag)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("tag ")
			b.WriteString(e.Tag)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Tag != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. A target with a
// phase set must match the phase too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the value path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Tag sets the type tag expression
func (b *Builder) Tag(t string) *Builder {
	b.err.Tag = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnsupportedType creates an error for a descriptor with no scalar, list or
// map shape.
func UnsupportedType(path []string, qualifiedName, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnsupportedType,
		Path:   path,
		GoType: qualifiedName,
		Detail: detail,
	}
}

// ScalarConversion creates an error for a value that does not support the
// accessor implied by its tag.
func ScalarConversion(phase Phase, path []string, goType, tag, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindScalarConversion,
		Path:   path,
		GoType: goType,
		Tag:    tag,
		Detail: detail,
	}
}

// Truncated creates an error for a read that needs more bytes than remain.
func Truncated(phase Phase, path []string, expected, available int) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindTruncated,
		Path:      path,
		Detail:    fmt.Sprintf("need %d bytes, %d available", expected, available),
		Expected:  expected,
		Available: available,
	}
}

// TrailingData creates an error for bytes left over after a complete decode.
func TrailingData(tag string, consumed, remaining int) *Error {
	return &Error{
		Phase:     PhaseDecode,
		Kind:      KindTrailingData,
		Tag:       tag,
		Detail:    fmt.Sprintf("%d bytes left after decoding %d bytes", remaining, consumed),
		Expected:  consumed,
		Available: consumed + remaining,
	}
}

// ReflectionCall wraps a failure of the reflect package itself.
func ReflectionCall(phase Phase, path []string, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindReflectionCall,
		Path:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidData creates an error for bytes that cannot encode any value of the
// expected tag.
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// FromPanic converts a recovered panic into a reflection_call error.
func FromPanic(phase Phase, path []string, recovered any) *Error {
	if err, ok := recovered.(error); ok {
		return ReflectionCall(phase, path, err, "reflect call panicked")
	}
	return ReflectionCall(phase, path, nil, fmt.Sprintf("reflect call panicked: %v", recovered))
}
