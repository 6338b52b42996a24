package graphql

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/cartql/pkg/errors"
	"github.com/utafrali/cartql/pkg/logger"
	"github.com/utafrali/cartql/pkg/validator"
)

// resolverError is returned from resolvers. graphql-go copies Extensions
// into the error entry of the response.
type resolverError struct {
	message string
	code    string
	fields  map[string]string
	err     error
}

func (e *resolverError) Error() string { return e.message }

func (e *resolverError) Unwrap() error { return e.err }

// Extensions exposes the error code, and the failing fields for
// validation errors.
func (e *resolverError) Extensions() map[string]any {
	ext := map[string]any{"code": e.code}
	if len(e.fields) > 0 {
		ext["fields"] = e.fields
	}
	return ext
}

// toResolverError classifies err the same way REST error responses are
// classified. Internal errors are logged and their message is hidden.
func toResolverError(ctx context.Context, err error, fallback *slog.Logger) error {
	if err == nil {
		return nil
	}

	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return &resolverError{
			message: "input validation failed",
			code:    "VALIDATION_ERROR",
			fields:  valErr.Fields(),
			err:     err,
		}
	}

	if apperrors.HTTPStatus(err) == http.StatusInternalServerError {
		l := logger.FromContext(ctx)
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(ctx, "graphql resolver failed", slog.String("error", err.Error()))
		return &resolverError{message: "an internal error occurred", code: apperrors.Code(err), err: err}
	}

	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	return &resolverError{message: message, code: apperrors.Code(err), err: err}
}
