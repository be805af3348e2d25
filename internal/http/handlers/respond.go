package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/avajson/internal/gateway"
	"github.com/geocoder89/avajson/internal/http/middlewares"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader(middlewares.RequestIDHeader)
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// RespondGatewayError maps a gateway failure onto a status. Internal errors are
// attached to the gin context for the request log and never echoed.
func RespondGatewayError(ctx *gin.Context, err error, internalMessage string) {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		_ = ctx.Error(err)
		RespondInternal(ctx, internalMessage)
		return
	}

	switch {
	case errors.Is(gwErr.Kind, gateway.ErrBadRequest):
		RespondBadRequest(ctx, gwErr.Message, nil)
	case errors.Is(gwErr.Kind, gateway.ErrUnauthorized):
		RespondUnauthorized(ctx, gwErr.Message)
	case errors.Is(gwErr.Kind, gateway.ErrNotFound):
		RespondNotFound(ctx, gwErr.Message)
	default:
		_ = ctx.Error(err)
		RespondInternal(ctx, internalMessage)
	}
}
