package simerr

import (
	"errors"
	"fmt"
)

// DomainError is the error value used across the simulation engine. Message
// is returned verbatim by Error: configured scenario messages must reach
// callers byte-for-byte, so no decoration happens here.
type DomainError struct {
	Type     ErrorType      `json:"errorType"`
	Code     string         `json:"errorCode,omitempty"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// New creates a DomainError with the type's default severity.
func New(t ErrorType, message string) *DomainError {
	return &DomainError{
		Type:     t,
		Message:  message,
		Severity: t.DefaultSeverity(),
	}
}

// Newf creates a DomainError with a formatted message.
func Newf(t ErrorType, format string, args ...any) *DomainError {
	return New(t, fmt.Sprintf(format, args...))
}

// Error returns the message exactly as it was configured or generated.
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches another DomainError by type, so callers can use
// errors.Is(err, &DomainError{Type: FieldNotFound}).
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Type == e.Type
}

// WithCode attaches a generated error code.
func (e *DomainError) WithCode(code string) *DomainError {
	e.Code = code
	return e
}

// WithSeverity overrides the default severity.
func (e *DomainError) WithSeverity(s Severity) *DomainError {
	if ValidSeverity(s) {
		e.Severity = s
	}
	return e
}

// WithContext attaches diagnostic context. The map is stored as given; the
// caller keeps ownership until the error is handed off.
func (e *DomainError) WithContext(ctx map[string]any) *DomainError {
	e.Context = ctx
	return e
}

// TypeOf extracts the ErrorType from err, unwrapping as needed. Returns the
// empty type for non-domain errors.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// IsType reports whether err carries the given error type.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// AsDomain unwraps err into a DomainError, or nil when err is not one.
func AsDomain(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}
