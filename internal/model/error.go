package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeConfiguration         = "CONFIGURATION_ERROR"
	ErrCodeSignatureVerification = "SIGNATURE_VERIFICATION_FAILED"
	ErrCodeUpstreamProvider      = "UPSTREAM_PROVIDER_ERROR"
	ErrCodeNotification          = "NOTIFICATION_ERROR"
	ErrCodeInvalidPromoCode      = "INVALID_PROMO_CODE"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeShippingRateNotFound  = "SHIPPING_RATE_NOT_FOUND"
	ErrCodeInvalidStatus         = "INVALID_STATUS"
	ErrCodeInvalidTransition     = "INVALID_STATUS_TRANSITION"
	ErrCodeMetadataTooLarge      = "METADATA_TOO_LARGE"
	ErrCodeMalformedMetadata     = "MALFORMED_METADATA"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeStorageDisabled       = "STORAGE_DISABLED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError is a business error carrying a stable code. Two domain errors
// match under errors.Is when their codes are equal, so a detailed error built
// with NewValidationError still matches ErrValidation.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that wraps an underlying cause.
func WrapDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error with a specific message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewConfigurationError creates a configuration error with a specific message.
func NewConfigurationError(message string) *DomainError {
	return NewDomainError(ErrCodeConfiguration, message)
}

// NewUpstreamError wraps a failed provider call.
func NewUpstreamError(message string, err error) *DomainError {
	return WrapDomainError(ErrCodeUpstreamProvider, message, err)
}

// Common domain errors
var (
	ErrValidation            = NewDomainError(ErrCodeValidation, "Request validation failed")
	ErrConfiguration         = NewDomainError(ErrCodeConfiguration, "Payment provider is not configured")
	ErrSignatureVerification = NewDomainError(ErrCodeSignatureVerification, "Webhook signature verification failed")
	ErrUpstreamProvider      = NewDomainError(ErrCodeUpstreamProvider, "Upstream provider call failed")
	ErrNotification          = NewDomainError(ErrCodeNotification, "Notification could not be sent")
	ErrInvalidPromoCode      = NewDomainError(ErrCodeInvalidPromoCode, "Promo code is not valid")
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrShippingRateNotFound  = NewDomainError(ErrCodeShippingRateNotFound, "Shipping rate not found")
	ErrInvalidStatus         = NewDomainError(ErrCodeInvalidStatus, "Invalid status value")
	ErrInvalidTransition     = NewDomainError(ErrCodeInvalidTransition, "Status transition is not allowed")
	ErrMetadataTooLarge      = NewDomainError(ErrCodeMetadataTooLarge, "Order metadata exceeds provider limits")
	ErrMalformedMetadata     = NewDomainError(ErrCodeMalformedMetadata, "Order metadata is malformed")
	ErrUnauthorised          = NewDomainError(ErrCodeUnauthorised, "Invalid credentials")
	ErrStorageDisabled       = NewDomainError(ErrCodeStorageDisabled, "Object storage is not configured")
)
