package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ibadah/tracker/internal/core/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error errorBody `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to HTTP status codes.
//   - Logs server-side failures without leaking details to the client.
//   - Renders {"error": {"code": ..., "message": ...}}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err)
		if status >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, errorResponse{Error: body})
	}
}

func resolveError(err error) (int, errorBody) {
	var de *domain.Error
	if errors.As(err, &de) {
		status := StatusForKind(de.Kind)
		if status >= http.StatusInternalServerError {
			return status, errorBody{Code: de.Code, Message: domain.ErrInternal.Message}
		}
		return status, errorBody{Code: de.Code, Message: de.Message}
	}

	// Echo's own errors: unknown routes, bind failures, method mismatches.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, errorBody{Code: domain.ErrRouteNotFound.Code, Message: domain.ErrRouteNotFound.Message}
		case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
			return he.Code, errorBody{Code: domain.ErrInvalidPayload.Code, Message: domain.ErrInvalidPayload.Message}
		case http.StatusMethodNotAllowed:
			return he.Code, errorBody{Code: "METHOD_NOT_ALLOWED", Message: http.StatusText(he.Code)}
		case http.StatusUnauthorized:
			return he.Code, errorBody{Code: domain.ErrAuthRequired.Code, Message: domain.ErrAuthRequired.Message}
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, errorBody{Code: "HTTP_ERROR", Message: http.StatusText(he.Code)}
		}
	}

	return http.StatusInternalServerError, errorBody{Code: domain.ErrInternal.Code, Message: domain.ErrInternal.Message}
}

// StatusForKind is the single mapping from error kind to HTTP status.
func StatusForKind(k domain.ErrorKind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
