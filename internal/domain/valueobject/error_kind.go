package valueobject

import "fmt"

// ErrorKind classifies URL validation failures. Input errors are always fatal
// to the request and carry a specific kind for the caller to act on.
type ErrorKind string

const (
	ErrorKindInvalidFormat       ErrorKind = "invalid-format"
	ErrorKindInvalidDomain       ErrorKind = "invalid-domain"
	ErrorKindUnsupportedProtocol ErrorKind = "unsupported-protocol"
	ErrorKindTooLong             ErrorKind = "too-long"
	ErrorKindSecurityRisk        ErrorKind = "security-risk"
)

// ValidationError is the error type returned for rejected input. It carries
// the specific rule that failed so callers can produce actionable messages.
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewValidationError constructs a ValidationError with the given kind.
func NewValidationError(kind ErrorKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
