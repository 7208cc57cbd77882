package api

import (
	"crypto/rand"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	Field         string `json:"field,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// NewErrorResponse builds an ErrorResponse with a fresh correlation id.
// Field is filled from a *types.ValidationError in err's chain.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}
	resp := &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
	if ve, ok := types.AsValidationError(err); ok {
		resp.Field = ve.Field
	}
	return resp
}

func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError logs err and writes it as an ErrorResponse with status code.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := NewErrorResponse(err, message, code)

	fields := []zap.Field{
		zap.String("correlation_id", resp.CorrelationID),
		zap.String("method", ctx.Request().Method),
		zap.String("path", ctx.Path()),
		zap.Int("code", code),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if code >= http.StatusInternalServerError {
		c.logger.Error(message, fields...)
	} else {
		c.logger.Info(message, fields...)
	}

	return ctx.JSON(code, resp)
}

// handleStoreError maps a pantry error to its HTTP status and writes it.
func (c *Controller) handleStoreError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusFor(err))
}

// statusFor returns the HTTP status for a pantry error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrValidation),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidFilter),
		errors.Is(err, types.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, types.ErrPantryDetached):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
