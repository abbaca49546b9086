// Package errors provides the standardized error taxonomy for the dialogue
// pipeline. Codes separate silent-fallback conditions (classification,
// extraction) from user-facing ones (reference resolution, collaborator
// outages) so each boundary knows whether to degrade or apologize.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Classification: the Text Generator was unreachable or its reply did
	// not validate. Always handled by the deterministic fallback, never
	// surfaced to the user.
	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeGeneratorTimeout     ErrorCode = "GENERATOR_TIMEOUT"
	ErrCodeGenerationFailed     ErrorCode = "GENERATION_FAILED"

	// Reference resolution: an ordinal points past the shown products or
	// nothing was shown. Converted to a clarification message.
	ErrCodeReferenceNotFound ErrorCode = "REFERENCE_NOT_FOUND"

	// Collaborators: caught per dispatcher branch and converted to a
	// specific apology.
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeCartUnavailable    ErrorCode = "CART_UNAVAILABLE"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchFailed       ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeProductNotFound    ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock  ErrorCode = "INSUFFICIENT_STOCK"

	// Session store.
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// Sentinel errors for errors.Is checks at package boundaries.
var (
	ErrGeneratorTimeout  = errors.New("GENERATOR_TIMEOUT")
	ErrGenerationFailed  = errors.New("GENERATION_FAILED")
	ErrReferenceNotFound = errors.New("REFERENCE_NOT_FOUND")
	ErrProductNotFound   = errors.New("PRODUCT_NOT_FOUND")
	ErrInsufficientStock = errors.New("INSUFFICIENT_STOCK")
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// New builds a StandardError with the given code.
func New(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogUnavailableError marks a Catalog Service outage; retryable once
// at the caller's discretion.
func NewCatalogUnavailableError(details string) *StandardError {
	return New(ErrCodeCatalogUnavailable, "Catalog service unavailable", details, true)
}

// NewCartUnavailableError marks a Cart Service outage.
func NewCartUnavailableError(details string) *StandardError {
	return New(ErrCodeCartUnavailable, "Cart service unavailable", details, true)
}

// NewClassificationFailedError marks an unusable generator classification
// reply. Non-retryable: the fallback classifier takes over instead.
func NewClassificationFailedError(details string) *StandardError {
	return New(ErrCodeClassificationFailed, "Intent classification failed", details, false)
}

// CodeOf extracts the ErrorCode from an error chain, or ErrCodeUnknown.
func CodeOf(err error) ErrorCode {
	var std *StandardError
	if errors.As(err, &std) {
		return std.Code
	}
	switch {
	case errors.Is(err, ErrGeneratorTimeout):
		return ErrCodeGeneratorTimeout
	case errors.Is(err, ErrGenerationFailed):
		return ErrCodeGenerationFailed
	case errors.Is(err, ErrReferenceNotFound):
		return ErrCodeReferenceNotFound
	case errors.Is(err, ErrProductNotFound):
		return ErrCodeProductNotFound
	case errors.Is(err, ErrInsufficientStock):
		return ErrCodeInsufficientStock
	}
	return ErrCodeUnknown
}
