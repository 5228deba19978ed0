// Package errors provides custom error types for the Reckon API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryNotFound   = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse      = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions or rules", StatusCode: http.StatusConflict}
	ErrSelfParentCategory = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
)

// Merchant rule errors.
var (
	ErrRuleNotFound = &AppError{Code: "RULE_NOT_FOUND", Message: "Merchant rule not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound  = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrDuplicateTransaction = &AppError{Code: "DUPLICATE_TRANSACTION", Message: "An identical transaction already exists", StatusCode: http.StatusConflict}
)

// Import errors.
var (
	ErrNoFile              = &AppError{Code: "NO_FILE", Message: "No file uploaded", StatusCode: http.StatusBadRequest}
	ErrFileTooLarge        = &AppError{Code: "FILE_TOO_LARGE", Message: "File size exceeds the 10 MB limit", StatusCode: http.StatusBadRequest}
	ErrUnrecognizedFormat  = &AppError{Code: "UNRECOGNIZED_FORMAT", Message: "Unrecognized file format", StatusCode: http.StatusBadRequest}
	ErrUnreadablePDF       = &AppError{Code: "UNREADABLE_PDF", Message: "This PDF appears to be a scanned image; export a generated PDF or a CSV instead", StatusCode: http.StatusUnprocessableEntity}
	ErrSessionNotFound     = &AppError{Code: "SESSION_NOT_FOUND", Message: "Import session not found", StatusCode: http.StatusNotFound}
	ErrSessionCommitted    = &AppError{Code: "SESSION_COMMITTED", Message: "This import session has already been committed", StatusCode: http.StatusConflict}
	ErrStagingRowNotFound  = &AppError{Code: "STAGING_ROW_NOT_FOUND", Message: "Staging transaction not found", StatusCode: http.StatusNotFound}
	ErrExtractionFailed    = &AppError{Code: "EXTRACTION_FAILED", Message: "Failed to extract transactions from the statement", StatusCode: http.StatusBadGateway}
	ErrLLMNotConfigured    = &AppError{Code: "LLM_NOT_CONFIGURED", Message: "LLM categorization is not configured; set GEMINI_API_KEY to enable this feature", StatusCode: http.StatusServiceUnavailable}
	ErrNoSuggestionsGiven  = &AppError{Code: "NO_SUGGESTIONS", Message: "No approved suggestions provided", StatusCode: http.StatusBadRequest}
	ErrSuggestionFailed    = &AppError{Code: "SUGGESTION_FAILED", Message: "Failed to generate category suggestions", StatusCode: http.StatusBadGateway}
)
