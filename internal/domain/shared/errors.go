package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same domain error code.
// It lets callers match wrapped or re-worded errors against the sentinel
// values below with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error carrying a more specific message
// while keeping the original code, so errors.Is against the sentinel still
// matches.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Every failure mode the engine can surface has its
// own code so callers can phrase a precise message instead of collapsing
// everything into a generic failure.
var (
	ErrNotFound           = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput       = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConfigInvalid      = NewDomainError("CONFIG_INVALID", "Zone configuration is invalid")
	ErrInvalidFormat      = NewDomainError("INVALID_FORMAT", "Location text does not match ZONE-RR-CC")
	ErrUnknownZone        = NewDomainError("UNKNOWN_ZONE", "Zone code is not configured")
	ErrRowOutOfRange      = NewDomainError("ROW_OUT_OF_RANGE", "Row is outside the zone's range")
	ErrColumnOutOfRange   = NewDomainError("COLUMN_OUT_OF_RANGE", "Column is outside the zone's range")
	ErrStorageUnavailable = NewDomainError("STORAGE_UNAVAILABLE", "Backing store is unavailable")
	ErrInsufficientStock  = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrOutboundForbidden  = NewDomainError("OUTBOUND_FORBIDDEN", "Category policy forbids outbound deduction")
	ErrBusy               = NewDomainError("BUSY", "Store is locked by another writer")
)
