package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/gyanguru-api/internal/audio"
	"github.com/Conceptual-Machines/gyanguru-api/internal/llm"
	"github.com/Conceptual-Machines/gyanguru-api/internal/logger"
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// statusForError maps service errors to HTTP status codes
func statusForError(err error) int {
	var (
		decodeErr    *audio.DecodeError
		transcodeErr *audio.TranscodeError
		upstreamErr  *llm.UpstreamError
	)

	switch {
	case errors.As(err, &decodeErr), errors.As(err, &transcodeErr):
		return http.StatusBadRequest
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err, reports server-side failures to Sentry and writes the error body
func respondError(c *gin.Context, msg string, err error) {
	status := statusForError(err)
	fields := logger.WithContext(c)
	fields["status_code"] = status

	if status >= http.StatusInternalServerError {
		logger.Error(msg, err, fields)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
	} else {
		fields["error"] = err.Error()
		logger.Warn(msg, fields)
	}

	c.JSON(status, gin.H{
		"error":      msg,
		"details":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}
