// Package errors provides custom error types for the Panier API.
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

// Budget errors.
var (
	ErrBudgetNotFound = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrInvalidPeriod  = &AppError{Code: "INVALID_PERIOD", Message: "Period start must be before period end", StatusCode: http.StatusBadRequest}

	// ErrNoBudgetConfigured means the user has never set up a budget, so
	// nothing can be rolled over. Distinct from ErrNoBudgetForPeriod.
	ErrNoBudgetConfigured = &AppError{Code: "NO_BUDGET_CONFIGURED", Message: "No budget configured; set up a budget first", StatusCode: http.StatusNotFound}

	// ErrNoBudgetForPeriod means the user has budgets, just none covering
	// the requested date.
	ErrNoBudgetForPeriod = &AppError{Code: "NO_BUDGET_FOR_PERIOD", Message: "No active budget covers this date", StatusCode: http.StatusNotFound}
)

// Expense errors.
var (
	ErrExpenseNotFound   = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrDateOutsidePeriod = &AppError{Code: "DATE_OUTSIDE_PERIOD", Message: "Expense date falls outside the budget period", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount     = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must not be negative", StatusCode: http.StatusBadRequest}
	ErrFutureDate        = &AppError{Code: "FUTURE_DATE", Message: "Expense date must not be in the future", StatusCode: http.StatusBadRequest}
)
