package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/util"
)

type errorMapping struct {
	sentinel error
	status   int
	code     string
}

// Checked in order; the first sentinel in the chain wins.
var errorMappings = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, domain.CodeInvalidCredentials},
	{domain.ErrUnauthorized, http.StatusUnauthorized, domain.CodeInvalidToken},
	{domain.ErrForbidden, http.StatusForbidden, domain.CodeForbidden},
	{domain.ErrNotFound, http.StatusNotFound, domain.CodeRecordNotFound},
	{domain.ErrDuplicateRecord, http.StatusConflict, domain.CodeDuplicateRecord},
	{domain.ErrValidation, http.StatusUnprocessableEntity, domain.CodeValidationError},
	{domain.ErrUnknownField, http.StatusBadRequest, domain.CodeInvalidField},
}

// writeError renders err as the API error body. Errors that do not wrap a
// domain sentinel are logged and reported as a generic 500.
func writeError(c echo.Context, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			return c.JSON(m.status, util.ErrorWithCode(m.code, clientMessage(err, m.sentinel), errorDetails(err)))
		}
	}

	slog.ErrorContext(c.Request().Context(), "request failed",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"path", c.Path(),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError,
		util.ErrorWithCode(domain.CodeInternalServerError, "internal server error", nil))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, util.ErrorWithCode(domain.CodeBadRequest, message, nil))
}

// clientMessage drops the sentinel suffix oops appends when wrapping.
func clientMessage(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

func errorDetails(err error) map[string]any {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	details := make(map[string]any)
	for _, key := range []string{"entity", "field", "id"} {
		if v, ok := oopsErr.Context()[key]; ok {
			details[key] = v
		}
	}
	return details
}

// httpErrorHandler renders echo's own errors (unknown route, bad method,
// body limits) in the same shape as handler errors.
func httpErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			}
			if respErr := c.JSON(he.Code, util.ErrorWithCode(statusCode(he.Code), msg, nil)); respErr != nil {
				logger.Error("write error response", "error", respErr)
			}
			return
		}

		if respErr := writeError(c, err); respErr != nil {
			logger.Error("write error response", "error", respErr)
		}
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.CodeBadRequest
	case http.StatusUnauthorized:
		return domain.CodeUnauthorized
	case http.StatusForbidden:
		return domain.CodeForbidden
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusUnprocessableEntity:
		return domain.CodeValidationError
	}
	if status >= http.StatusInternalServerError {
		return domain.CodeInternalServerError
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
