package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"github.com/smartbudget/smartbudget-server/pkg/logger"
)

const fallbackUserMessage = "Something went wrong. Please try again later."

// Handler is the single sink for application errors: it logs with the
// correlation ID, reports high-severity errors to Sentry, and returns the
// message safe to surface to the user.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle processes err and returns the user-facing message and whether the
// operation is worth retrying. A nil err returns ("", false).
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr == nil {
		h.logError(ctx, "unknown error",
			slog.String("message", err.Error()),
			slog.String("severity", string(SeverityHigh)),
		)

		if h.sentryEnabled {
			h.report(err)
		}

		return fallbackUserMessage, false
	}

	h.logError(ctx, "application error",
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.String("severity", string(appErr.Severity)),
		slog.Bool("retryable", appErr.Retryable),
	)

	if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
		h.report(err)
	}

	userMessage := appErr.UserMessage
	if userMessage == "" {
		userMessage = fallbackUserMessage
	}

	return userMessage, appErr.Retryable
}

func (h *Handler) logError(ctx context.Context, msg string, attrs ...slog.Attr) {
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	h.log.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (h *Handler) report(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}
			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
