package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ridwan414/shobdotori/internal/errors"
	"github.com/Ridwan414/shobdotori/internal/logger"
	"github.com/Ridwan414/shobdotori/internal/storage"
	"github.com/Ridwan414/shobdotori/internal/tracker"
	"github.com/Ridwan414/shobdotori/internal/transcode"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse creates a new API error response. Server-side failures
// have their message scrubbed of URLs and credentials.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
		if code >= http.StatusInternalServerError {
			errorStr = errors.ScrubMessage(errorStr)
		}
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: uuid.NewString()[:8],
	}
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput), errors.Is(err, transcode.ErrInvalidAudio):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrAlreadyRecorded):
		return http.StatusConflict
	case errors.Is(err, transcode.ErrFFmpegUnavailable):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		switch ee.Category {
		case errors.CategoryValidation:
			return http.StatusBadRequest
		case errors.CategoryNotFound:
			return http.StatusNotFound
		case errors.CategoryConflict:
			return http.StatusConflict
		case errors.CategoryTimeout:
			return http.StatusGatewayTimeout
		case errors.CategoryStorage, errors.CategoryNetwork:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// HandleError logs err and writes the error response derived from it.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	return c.respondError(ctx, err, message, StatusFor(err))
}

// BadRequest rejects a request without an underlying error.
func (c *Controller) BadRequest(ctx echo.Context, message string) error {
	return c.respondError(ctx, nil, message, http.StatusBadRequest)
}

func (c *Controller) respondError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []logger.Field{
		logger.String("correlation_id", resp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.logger.Error("API error", fields...)
	} else {
		c.logger.Debug("API request rejected", fields...)
	}

	return ctx.JSON(code, resp)
}
