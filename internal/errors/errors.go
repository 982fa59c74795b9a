// Package errors provides the categorized error taxonomy used across the tracker.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/monster-tracker/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryMalformedInput is an unparseable value where a default is not acceptable
	CategoryMalformedInput ErrorCategory = "malformed_input"
	// CategoryMissingData is an absent file, snapshot or player
	CategoryMissingData ErrorCategory = "missing_data"
	// CategoryRenderingPrecondition is a report entry lacking required metadata
	CategoryRenderingPrecondition ErrorCategory = "rendering_precondition"
	// CategoryValidation represents invalid caller parameters
	CategoryValidation ErrorCategory = "validation"
	// CategoryProvider represents Metamob API errors
	CategoryProvider ErrorCategory = "provider"
	// CategoryDatabase represents database errors
	CategoryDatabase ErrorCategory = "database"
	// CategoryCache represents cache errors
	CategoryCache ErrorCategory = "cache"
	// CategorySystem represents everything else
	CategorySystem ErrorCategory = "system"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Engine errors

// NewMalformedQuantityError reports a quantity that could not be parsed as an integer
func NewMalformedQuantityError(player, item string, raw interface{}, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryMalformedInput,
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "MALFORMED_QUANTITY",
		Message:    fmt.Sprintf("invalid quantity %v for monster '%s' of player '%s'", raw, item, player),
		Cause:      cause,
		Details: map[string]interface{}{
			"player": player,
			"item":   item,
			"raw":    raw,
		},
	}
}

// NewRenderingPreconditionError reports an extremes entry missing display metadata
func NewRenderingPreconditionError(item, field string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRenderingPrecondition,
		StatusCode: http.StatusUnprocessableEntity,
		Code:       "MISSING_METADATA",
		Message:    fmt.Sprintf("monster '%s' has no '%s' field to display", item, field),
		Details: map[string]interface{}{
			"item":  item,
			"field": field,
		},
	}
}

// Collaborator errors

// NewMissingDataError reports a source that has no usable data
func NewMissingDataError(source string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryMissingData,
		StatusCode: http.StatusNotFound,
		Code:       "NO_DATA",
		Message:    fmt.Sprintf("no data available from %s", source),
		Cause:      cause,
		Details: map[string]interface{}{
			"source": source,
		},
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewProviderError creates a Metamob API error
func NewProviderError(operation string, statusCode int, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryProvider,
		StatusCode: http.StatusBadGateway,
		Code:       "PROVIDER_ERROR",
		Message:    fmt.Sprintf("metamob API error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation":      operation,
			"upstreamStatus": statusCode,
		},
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError creates a cache error
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_ERROR",
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize returns err as a CategorizedError, searching the wrap chain first
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if stderrors.As(err, &svcErr) {
		return &CategorizedError{
			Category:   CategorySystem,
			StatusCode: http.StatusInternalServerError,
			Code:       svcErr.Code,
			Message:    svcErr.Message,
			Details:    svcErr.Details,
		}
	}

	return NewInternalError("unexpected error", err)
}

// IsCategory reports whether err carries the given category anywhere in its chain
func IsCategory(err error, category ErrorCategory) bool {
	var catErr *CategorizedError
	if !stderrors.As(err, &catErr) {
		return false
	}
	return catErr.Category == category
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable determines if an error is worth retrying
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryDatabase, CategoryCache:
		return true
	case CategoryProvider:
		// 4xx answers from Metamob will not change on retry
		upstream, _ := catErr.Details["upstreamStatus"].(int)
		return upstream == 0 || upstream == http.StatusTooManyRequests || upstream >= 500
	default:
		return false
	}
}
