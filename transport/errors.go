package transport

import (
	"github.com/goliatone/go-attendance/core"
	goerrors "github.com/goliatone/go-errors"
)

func transportError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func transportWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return transportError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(transportTextCode(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// transportTextCode maps external failures to the transport failure code so
// callers can tell "never completed" apart from remote HTTP errors.
func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryExternal:
		return core.ErrorTransportFailure
	default:
		return core.TextCodeForCategory(category)
	}
}
