package exceptions

import (
	"errors"
	"farmacia-service/internal/pkg/constvars"
	"fmt"
	"runtime"
)

// Stable codes for the business error taxonomy. Callers branch on these
// through IsCode instead of comparing messages.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeQuotaExceeded       = "QUOTA_EXCEEDED"
	CodeNoCapacityFound     = "NO_CAPACITY_FOUND"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeDuplicateDate       = "DUPLICATE_DATE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeNotFound            = "NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL_ERROR"
)

type CustomError struct {
	StatusCode    int      `json:"status_code"`
	Success       bool     `json:"success"`
	Code          string   `json:"code"`
	ClientMessage string   `json:"message"`
	DevMessage    string   `json:"-"`
	Location      Location `json:"-"`
	cause         error
}

type Location struct {
	File         string
	Line         int
	FunctionName string
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%s (%s:%d %s)", e.DevMessage, e.Location.File, e.Location.Line, e.Location.FunctionName)
}

func (e *CustomError) Unwrap() error {
	return e.cause
}

// BuildNewCustomError wraps err (which may be nil) with the HTTP status and
// messages. The code is derived from the status and may be overridden with
// WithCode.
func BuildNewCustomError(err error, statusCode int, clientMessage, devMessage string) *CustomError {
	location := getLocation(3)
	if err != nil {
		devMessage = fmt.Sprintf("%s: %s", devMessage, err.Error())
	}
	return &CustomError{
		StatusCode:    statusCode,
		Code:          codeFromStatus(statusCode),
		ClientMessage: clientMessage,
		DevMessage:    devMessage,
		Location:      location,
		cause:         err,
	}
}

func WrapWithoutError(statusCode int, clientMessage, devMessage string) *CustomError {
	return BuildNewCustomError(nil, statusCode, clientMessage, devMessage)
}

func WrapWithError(err error, statusCode int, clientMessage, devMessage string) *CustomError {
	return BuildNewCustomError(err, statusCode, clientMessage, devMessage)
}

func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// IsCode reports whether any CustomError in err's chain carries code.
func IsCode(err error, code string) bool {
	var customErr *CustomError
	for err != nil {
		if !errors.As(err, &customErr) {
			return false
		}
		if customErr.Code == code {
			return true
		}
		err = customErr.cause
	}
	return false
}

// AsCustomError returns err as a CustomError, wrapping unknown errors as
// internal server errors.
func AsCustomError(err error) *CustomError {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}
	return ErrServerProcess(err)
}

func codeFromStatus(statusCode int) string {
	switch statusCode {
	case constvars.StatusBadRequest:
		return CodeValidation
	case constvars.StatusUnauthorized:
		return CodeUnauthorized
	case constvars.StatusForbidden:
		return CodeForbidden
	case constvars.StatusNotFound:
		return CodeNotFound
	default:
		return CodeInternal
	}
}

func getLocation(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{
			File:         constvars.ResponseUnknown,
			Line:         0,
			FunctionName: constvars.ResponseUnknown,
		}
	}
	function := runtime.FuncForPC(pc).Name()
	return Location{
		File:         file,
		Line:         line,
		FunctionName: function,
	}
}
