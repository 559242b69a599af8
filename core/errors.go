package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput           = "ATTENDANCE_BAD_INPUT"
	ErrorTransportFailure   = "ATTENDANCE_TRANSPORT_FAILURE"
	ErrorHTTPStatus         = "ATTENDANCE_HTTP_STATUS"
	ErrorAuthRetryExhausted = "ATTENDANCE_AUTH_RETRY_EXHAUSTED"
	ErrorTokenUnavailable   = "ATTENDANCE_TOKEN_UNAVAILABLE"
	ErrorDecodeFailure      = "ATTENDANCE_DECODE_FAILURE"
	ErrorUnauthorized       = "ATTENDANCE_UNAUTHORIZED"
	ErrorForbidden          = "ATTENDANCE_FORBIDDEN"
	ErrorNotFound           = "ATTENDANCE_NOT_FOUND"
	ErrorConflict           = "ATTENDANCE_CONFLICT"
	ErrorRateLimited        = "ATTENDANCE_RATE_LIMITED"
	ErrorExternalFailure    = "ATTENDANCE_EXTERNAL_FAILURE"
	ErrorInternal           = "ATTENDANCE_INTERNAL_ERROR"
)

// DefaultErrorMapper converts any error into a go-errors envelope with a code
// and text code set.
func DefaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return EnsureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "connection refused"):
		return newAttendanceError(err.Error(), goerrors.CategoryExternal, ErrorTransportFailure)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newAttendanceError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return EnsureErrorEnvelope(mapped)
}

func newAttendanceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return EnsureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func EnsureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatusForCategory(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = TextCodeForCategory(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func TextCodeForCategory(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth:
		return ErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorForbidden
	case goerrors.CategoryConflict:
		return ErrorConflict
	case goerrors.CategoryRateLimit:
		return ErrorRateLimited
	case goerrors.CategoryExternal:
		return ErrorExternalFailure
	default:
		return ErrorInternal
	}
}

func HTTPStatusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CategoryForStatus picks the go-errors category matching a remote HTTP status.
func CategoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusUnauthorized:
		return goerrors.CategoryAuth
	case status == http.StatusForbidden:
		return goerrors.CategoryAuthz
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status == http.StatusTooManyRequests:
		return goerrors.CategoryRateLimit
	case status == http.StatusUnprocessableEntity:
		return goerrors.CategoryValidation
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// IsTransportError reports whether the request never completed.
func IsTransportError(err error) bool {
	return hasTextCode(err, ErrorTransportFailure)
}

// IsAuthRetryExhausted reports whether the server rejected the token again
// after a forced refresh.
func IsAuthRetryExhausted(err error) bool {
	return hasTextCode(err, ErrorAuthRetryExhausted)
}

func IsTokenUnavailable(err error) bool {
	return hasTextCode(err, ErrorTokenUnavailable)
}

func IsDecodeError(err error) bool {
	return hasTextCode(err, ErrorDecodeFailure)
}

// HTTPStatus returns the remote status code carried by an HTTP status error or
// an exhausted auth retry.
func HTTPStatus(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return 0, false
	}
	switch richErr.TextCode {
	case ErrorHTTPStatus, ErrorAuthRetryExhausted:
		return richErr.Code, true
	default:
		return 0, false
	}
}
