package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Stable error codes returned to API clients.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyResolved   = "ALREADY_RESOLVED"
	CodeProfileIncomplete = "PROFILE_INCOMPLETE"
	CodeDuplicate         = "DUPLICATE"
	CodeConflict          = "CONFLICT"
	CodeValidation        = "VALIDATION_ERROR"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

var codeStatus = map[string]int{
	CodeNotFound:          fiber.StatusNotFound,
	CodeAlreadyResolved:   fiber.StatusConflict,
	CodeConflict:          fiber.StatusConflict,
	CodeProfileIncomplete: fiber.StatusBadRequest,
	CodeDuplicate:         fiber.StatusBadRequest,
	CodeValidation:        fiber.StatusBadRequest,
	CodeForbidden:         fiber.StatusForbidden,
	CodeUnauthorized:      fiber.StatusUnauthorized,
	CodeInternal:          fiber.StatusInternalServerError,
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError is a domain failure with a client-facing code and message. Err, when
// set, is the underlying cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(code, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(resource string, id any) *AppError {
	return newAppError(CodeNotFound, "%s with ID %v not found", resource, id)
}

// NewAlreadyResolvedError reports a transition attempted on a posting that left NEW.
func NewAlreadyResolvedError(kind Kind, id uint) *AppError {
	return newAppError(CodeAlreadyResolved, "%s %d is already resolved", kind, id)
}

// NewProfileIncompleteError lists the profile fields the author still has to fill.
func NewProfileIncompleteError(missing []string) *AppError {
	return newAppError(CodeProfileIncomplete, "profile is incomplete: missing %v", missing)
}

func NewDuplicateError(message string) *AppError {
	return newAppError(CodeDuplicate, "%s", message)
}

// NewConflictError reports an operation that does not apply to the current state.
func NewConflictError(message string) *AppError {
	return newAppError(CodeConflict, "%s", message)
}

func NewValidationError(message string) *AppError {
	return newAppError(CodeValidation, "%s", message)
}

func NewForbiddenError(message string) *AppError {
	return newAppError(CodeForbidden, "%s", message)
}

func NewUnauthorizedError(message string) *AppError {
	return newAppError(CodeUnauthorized, "%s", message)
}

// NewInternalError hides err behind a generic message; the cause is kept for logs.
func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus maps an error to the status code the API answers with. Anything
// that is not an AppError is a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, ok := codeStatus[appErr.Code]; ok {
			return status
		}
	}
	return fiber.StatusInternalServerError
}

// RespondWithError writes err as an ErrorResponse. Causes of internal errors
// are never echoed.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	body := ErrorResponse{Error: err.Error()}

	var appErr *AppError
	if errors.As(err, &appErr) {
		body = ErrorResponse{Error: appErr.Message, Code: appErr.Code}
		if appErr.Err != nil && appErr.Code != CodeInternal {
			body.Details = appErr.Err.Error()
		}
	}
	return c.Status(status).JSON(body)
}
