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

// Is reports whether target carries the same code, so wrapped copies
// created with a more specific message still match the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by every bounded context
const (
	CodeNotFound                = "NOT_FOUND"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
	CodeUnitNotDefined          = "UNIT_NOT_DEFINED"
	CodeIncompatibleUnits       = "INCOMPATIBLE_UNITS"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeInvalidConversionFactor = "INVALID_CONVERSION_FACTOR"
	CodeInUse                   = "RESOURCE_IN_USE"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInUse               = NewDomainError(CodeInUse, "Resource is still referenced")

	// Unit-of-measure errors
	ErrUnitNotDefined          = NewDomainError(CodeUnitNotDefined, "Required unit is not defined for this product")
	ErrIncompatibleUnits       = NewDomainError(CodeIncompatibleUnits, "Units cannot be converted into each other")
	ErrInsufficientStock       = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidConversionFactor = NewDomainError(CodeInvalidConversionFactor, "Conversion factor must be greater than zero")
)
