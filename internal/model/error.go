package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorKind classifies domain errors for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidTransition
	KindUnauthorized
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound      = "ORDER_NOT_FOUND"
	ErrCodeCartLineNotFound   = "CART_LINE_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeAmountMismatch     = "AMOUNT_MISMATCH"
	ErrCodeEmptyUpdate        = "EMPTY_UPDATE"
	ErrCodeEmptyProductUpdate = "EMPTY_PRODUCT_UPDATE"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeEmailExists        = "EMAIL_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	ErrCodeWrongPassword      = "WRONG_PASSWORD"
	ErrCodeTooManyImages      = "TOO_MANY_IMAGES"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with the given message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(KindValidation, ErrCodeValidation, message)
}

// KindOf returns the kind of a domain error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Common domain errors
var (
	ErrProductNotFound    = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound      = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrCartLineNotFound   = NewDomainError(KindNotFound, ErrCodeCartLineNotFound, "Cart item not found")
	ErrUserNotFound       = NewDomainError(KindNotFound, ErrCodeUserNotFound, "User not found")
	ErrInvalidQuantity    = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be at least 1")
	ErrAmountMismatch     = NewDomainError(KindValidation, ErrCodeAmountMismatch, "Order amount does not match current prices")
	ErrEmptyOrderUpdate   = NewDomainError(KindValidation, ErrCodeEmptyUpdate, "Status or payment is required")
	ErrEmptyProductUpdate = NewDomainError(KindValidation, ErrCodeEmptyProductUpdate, "At least one field is required")
	ErrInvalidTransition  = NewDomainError(KindInvalidTransition, ErrCodeInvalidTransition, "Order cannot move to the requested state")
	ErrEmailExists        = NewDomainError(KindConflict, ErrCodeEmailExists, "Email already exists")
	ErrInvalidCredentials = NewDomainError(KindUnauthorized, ErrCodeInvalidCredentials, "Invalid email or password")
	ErrInvalidResetToken  = NewDomainError(KindValidation, ErrCodeInvalidResetToken, "Reset link is invalid or has expired")
	ErrWrongPassword      = NewDomainError(KindValidation, ErrCodeWrongPassword, "Current password is incorrect")
	ErrTooManyImages      = NewDomainError(KindValidation, ErrCodeTooManyImages, "At most 4 images can be uploaded")
	ErrUnauthorised       = NewDomainError(KindUnauthorized, ErrCodeUnauthorised, "Unauthorized user")
	ErrForbidden          = NewDomainError(KindForbidden, ErrCodeForbidden, "You do not have access to this resource")
)
