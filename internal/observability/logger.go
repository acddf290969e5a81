// Package observability provides request-scoped structured logging.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for the request ID.
	LogFieldRequestID = "request_id"
	// LogFieldConversation is the field name for the conversation UID.
	LogFieldConversation = "conversation_uid"
	// LogFieldMode is the field name for the retrieval mode.
	LogFieldMode = "mode"
	// LogFieldStage is the field name for the pipeline stage.
	LogFieldStage = "stage"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for the error code.
	LogFieldErrorCode = "error_code"
)

// RequestContext carries per-request logging state through the pipeline.
type RequestContext struct {
	RequestID       string
	ConversationUID string
	Mode            string
	StartTime       time.Time
	Logger          *slog.Logger
}

// NewRequestContext creates a request context with a generated request ID.
func NewRequestContext(logger *slog.Logger, mode, conversationUID string) *RequestContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestContext{
		RequestID:       uuid.New().String(),
		ConversationUID: conversationUID,
		Mode:            mode,
		StartTime:       time.Now(),
		Logger:          logger,
	}
}

// Info logs an info message with the request attributes.
func (r *RequestContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.combined(attrs)...)
}

// Debug logs a debug message with the request attributes.
func (r *RequestContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.combined(attrs)...)
}

// Warn logs a warning with the request attributes.
func (r *RequestContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.combined(attrs)...)
}

// Error logs an error with the request attributes.
func (r *RequestContext) Error(msg string, err error, attrs ...slog.Attr) {
	all := append(attrs, slog.String("error", err.Error()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.combined(all)...)
}

// Duration returns the elapsed time since the request started.
func (r *RequestContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RequestContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RequestContext) combined(attrs []slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRequestID, r.RequestID),
		slog.String(LogFieldMode, r.Mode),
	}
	if r.ConversationUID != "" {
		base = append(base, slog.String(LogFieldConversation, r.ConversationUID))
	}
	return append(base, attrs...)
}

type ctxKey struct{}

// WithRequestContext attaches the request context to a context.Context.
func WithRequestContext(ctx context.Context, reqCtx *RequestContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, reqCtx)
}

// FromContext extracts the request context, if present.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	reqCtx, ok := ctx.Value(ctxKey{}).(*RequestContext)
	return reqCtx, ok
}
