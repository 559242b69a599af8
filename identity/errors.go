package identity

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorProviderRejected = "ATTENDANCE_IDENTITY_REJECTED"
	ErrorSessionRevoked   = "ATTENDANCE_IDENTITY_SESSION_REVOKED"
	ErrorNotSignedIn      = "ATTENDANCE_IDENTITY_NOT_SIGNED_IN"
	ErrorProviderFailure  = "ATTENDANCE_IDENTITY_PROVIDER_FAILURE"
)

const defaultUserMessage = "An error occurred, please try again."

type providerCodeInfo struct {
	category goerrors.Category
	message  string
	revoked  bool
}

var providerCodes = map[string]providerCodeInfo{
	"INVALID_EMAIL":                  {goerrors.CategoryBadInput, "Invalid email address.", false},
	"MISSING_EMAIL":                  {goerrors.CategoryBadInput, "An email address is required.", false},
	"MISSING_PASSWORD":               {goerrors.CategoryBadInput, "A password is required.", false},
	"WEAK_PASSWORD":                  {goerrors.CategoryValidation, "The password is too weak.", false},
	"EMAIL_EXISTS":                   {goerrors.CategoryConflict, "This email address is already in use.", false},
	"EMAIL_NOT_FOUND":                {goerrors.CategoryAuth, "No account found with this email address.", false},
	"INVALID_PASSWORD":               {goerrors.CategoryAuth, "Incorrect password.", false},
	"INVALID_LOGIN_CREDENTIALS":      {goerrors.CategoryAuth, "Incorrect email or password.", false},
	"USER_DISABLED":                  {goerrors.CategoryAuthz, "This account has been disabled.", true},
	"OPERATION_NOT_ALLOWED":          {goerrors.CategoryAuthz, "This sign-in method is not enabled.", false},
	"TOO_MANY_ATTEMPTS_TRY_LATER":    {goerrors.CategoryRateLimit, "Too many attempts, please try again later.", false},
	"TOKEN_EXPIRED":                  {goerrors.CategoryAuth, "Your session has expired, please sign in again.", true},
	"INVALID_REFRESH_TOKEN":          {goerrors.CategoryAuth, "Your session has expired, please sign in again.", true},
	"INVALID_ID_TOKEN":               {goerrors.CategoryAuth, "Your session has expired, please sign in again.", true},
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": {goerrors.CategoryAuth, "Please sign in again to continue.", true},
	"USER_NOT_FOUND":                 {goerrors.CategoryAuth, "This account no longer exists.", true},
	"INVALID_GRANT_TYPE":             {goerrors.CategoryBadInput, defaultUserMessage, false},
	"MISSING_REFRESH_TOKEN":          {goerrors.CategoryAuth, "You are not signed in.", true},
}

// providerError builds the envelope for an error code returned by the
// identity provider. Unknown codes map to an external failure.
func providerError(code string, status int, operation string) *goerrors.Error {
	code = normalizeProviderCode(code)
	info, ok := providerCodes[code]
	if !ok {
		info = providerCodeInfo{category: goerrors.CategoryExternal, message: defaultUserMessage}
	}
	textCode := ErrorProviderRejected
	if !ok {
		textCode = ErrorProviderFailure
	}
	if info.revoked {
		textCode = ErrorSessionRevoked
	}
	httpStatus := core.HTTPStatusForCategory(info.category)
	if !ok && status > 0 {
		httpStatus = status
	}
	return goerrors.New("identity: "+operation+" rejected: "+code, info.category).
		WithCode(httpStatus).
		WithTextCode(textCode).
		WithMetadata(map[string]any{
			"provider_code": code,
			"operation":     operation,
			"user_message":  info.message,
		})
}

// normalizeProviderCode strips the detail suffix some codes carry, as in
// "WEAK_PASSWORD : Password should be at least 6 characters".
func normalizeProviderCode(code string) string {
	code = strings.TrimSpace(code)
	if index := strings.Index(code, " "); index > 0 {
		code = code[:index]
	}
	return strings.ToUpper(code)
}

func notSignedInError() *goerrors.Error {
	return goerrors.New("identity: no signed-in session", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(ErrorNotSignedIn).
		WithMetadata(map[string]any{"user_message": "You are not signed in."})
}

func validationError(message string, fields ...goerrors.FieldError) *goerrors.Error {
	return goerrors.NewValidation(message, fields...).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorBadInput)
}

// ProviderCode returns the identity provider error code carried by err.
func ProviderCode(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	code, _ := richErr.Metadata["provider_code"].(string)
	return code
}

// UserMessage returns a message suitable for showing to the person using the
// client. Transport failures get a connectivity hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if core.IsTransportError(err) {
		return "Connection error, check your internet connection."
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return defaultUserMessage
	}
	if message, ok := richErr.Metadata["user_message"].(string); ok && strings.TrimSpace(message) != "" {
		return message
	}
	if richErr.Category == goerrors.CategoryValidation && len(richErr.ValidationErrors) > 0 {
		return richErr.ValidationErrors[0].Error()
	}
	return defaultUserMessage
}

// IsSessionRevoked reports whether the provider refused to keep the session
// alive, after which the user has to sign in again.
func IsSessionRevoked(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == ErrorSessionRevoked
}

func IsNotSignedIn(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == ErrorNotSignedIn
}
