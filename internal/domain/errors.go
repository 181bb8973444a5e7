package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

var (
	ErrInvalidRole          = NewDomainError(ErrCodeValidation, "invalid message role")
	ErrEmptyContent         = NewDomainError(ErrCodeValidation, "message content cannot be empty")
	ErrMissingMessages      = NewDomainError(ErrCodeValidation, "request must contain at least one message")
	ErrInvalidIngestStatus  = NewDomainError(ErrCodeValidation, "invalid ingest job status")
	ErrUnsupportedDocument  = NewDomainError(ErrCodeValidation, "unsupported or malformed document")
	ErrIngestJobNotFound    = NewDomainError(ErrCodeNotFound, "ingest job not found")
	ErrStorageUnavailable   = NewDomainError(ErrCodeUnavailable, "session or chunk storage unavailable")
	ErrRetrievalUnavailable = NewDomainError(ErrCodeUnavailable, "context retrieval unavailable")
	ErrMissingBearerToken   = NewDomainError(ErrCodeUnauthorized, "missing or malformed authorization header")
	ErrInvalidBearerToken   = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)
