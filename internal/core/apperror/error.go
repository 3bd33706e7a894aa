// Package apperror provides structured error handling for the ledger core.
// All business errors must use AppError so callers can identify the kind
// of failure and the offending entity.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the ledger domain
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Commit protocol violations (422)
	CodeTransactionCommitted = "TRANSACTION_COMMITTED"
	CodeEmptyTransaction     = "EMPTY_TRANSACTION"
	CodeImbalanced           = "IMBALANCED_TRANSACTION"
	CodeFiscalYearClosed     = "FISCAL_YEAR_CLOSED"
	CodeAccountFrozen        = "ACCOUNT_FROZEN"
	CodeLotMismatch          = "LOT_MISMATCH"

	// Closing violations (422)
	CodeAlreadyClosed = "FISCAL_YEAR_ALREADY_CLOSED"

	// Calendar violations (422)
	CodePeriodSpansYears = "PERIOD_SPANS_FISCAL_YEARS"

	// Configuration violations (422)
	CodeClosingJournal = "CLOSING_JOURNAL_CONFLICT"
	CodeLotTracking    = "LOT_TRACKING_NOT_ALLOWED"
	CodeNetEarnings    = "NET_EARNINGS_CONFLICT"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict        = "CONFLICT"
	CodeDuplicateNumber = "DUPLICATE_NUMBER"
	CodeDuplicateCode   = "DUPLICATE_ACCOUNT_CODE"
)

// AppError is the standard error type for the ledger.
// It implements the error interface and carries structured details
// identifying the offending entity for display.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (entity ids, amounts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a rule violation error (422) with the given code
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewTransactionCommitted is returned when committing a non-draft transaction.
func NewTransactionCommitted(txn string) *AppError {
	return &AppError{
		Code:       CodeTransactionCommitted,
		Message:    fmt.Sprintf("Transaction %s already committed", txn),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"transaction": txn},
	}
}

// NewEmptyTransaction is returned when committing a transaction without items.
func NewEmptyTransaction(txn string) *AppError {
	return &AppError{
		Code:       CodeEmptyTransaction,
		Message:    "Cannot commit an empty transaction",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"transaction": txn},
	}
}

// NewImbalanced is returned when transaction items do not sum to zero.
func NewImbalanced(txn, balance string) *AppError {
	return &AppError{
		Code:       CodeImbalanced,
		Message:    "Imbalanced transaction",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"transaction": txn, "balance": balance},
	}
}

// NewFiscalYearClosed is returned when posting into a closed fiscal year.
func NewFiscalYearClosed(year string) *AppError {
	return &AppError{
		Code:       CodeFiscalYearClosed,
		Message:    fmt.Sprintf("Fiscal year %s already closed", year),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"fiscal_year": year},
	}
}

// NewAlreadyClosed is returned when closing an already closed fiscal year.
func NewAlreadyClosed(year string) *AppError {
	return &AppError{
		Code:       CodeAlreadyClosed,
		Message:    fmt.Sprintf("Fiscal year %s already closed", year),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"fiscal_year": year},
	}
}

// NewDuplicateNumber is returned when a transaction number is already taken
// within its (fiscal year, journal) sequence.
func NewDuplicateNumber(journal string, number int) *AppError {
	return &AppError{
		Code:       CodeDuplicateNumber,
		Message:    "Duplicate transaction number",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"journal": journal, "number": number},
	}
}

// NewAccountFrozen is returned when an item posts to a frozen account.
func NewAccountFrozen(account string) *AppError {
	return &AppError{
		Code:       CodeAccountFrozen,
		Message:    "Account frozen: " + account,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"account": account},
	}
}

// NewLotMismatch is returned when an item's lot belongs to another account.
func NewLotMismatch(account, lot string) *AppError {
	return &AppError{
		Code:       CodeLotMismatch,
		Message:    "Lot does not match the account",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"account": account, "lot": lot},
	}
}

// NewPeriodSpansYears is returned when a fiscal period straddles two years.
func NewPeriodSpansYears(start, end string) *AppError {
	return &AppError{
		Code:       CodePeriodSpansYears,
		Message:    "Fiscal period cannot span multiple fiscal years",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"start": start, "end": end},
	}
}

// NewDuplicateCode is returned when an account code is already in use.
func NewDuplicateCode(code string) *AppError {
	return &AppError{
		Code:       CodeDuplicateCode,
		Message:    "Duplicate account code",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"code": code},
	}
}

// NewClosingJournalConflict is returned when zero or multiple closing
// journals are configured.
func NewClosingJournalConflict(count int) *AppError {
	return &AppError{
		Code:       CodeClosingJournal,
		Message:    "Exactly one closing journal must be configured",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"count": count},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks if error carries the given ledger error code
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}
