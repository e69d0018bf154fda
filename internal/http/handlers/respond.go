package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/noteflow/internal/apperr"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

const ctxRequestID = "request_id"

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(ctxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
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

// AbortError is RespondError for middleware: the chain stops here.
func AbortError(ctx *gin.Context, status int, code, message string) {
	RespondError(ctx, status, code, message, nil)
	ctx.Abort()
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

// RespondAppError writes err using its apperr kind. 5xx causes are logged;
// they never reach the client.
func RespondAppError(ctx *gin.Context, err error) {
	desc, message := apperr.Describe(err)

	if desc.Status >= http.StatusInternalServerError {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"err", err,
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
		)
	}

	RespondError(ctx, desc.Status, desc.Code, message, nil)
}
