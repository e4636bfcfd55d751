package observability

import (
	"context"
	"time"

	"catalog/internal/models"

	"go.uber.org/zap"
)

// Sink receives the lifecycle events of service operations.
type Sink interface {
	Started(ctx context.Context, operation string, fields ...zap.Field) Span
}

// Span tracks one running operation. Exactly one of Succeeded or Failed
// should be called.
type Span interface {
	Succeeded(fields ...zap.Field)
	Failed(kind models.FailureKind, err error, fields ...zap.Field)
}

// ZapSink writes operation events as structured log entries.
type ZapSink struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewZapSink creates a sink writing to logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("ops"), now: time.Now}
}

func (s *ZapSink) Started(ctx context.Context, operation string, fields ...zap.Field) Span {
	base := []zap.Field{zap.String("operation", operation)}
	if id := RequestIDFromContext(ctx); id != "" {
		base = append(base, zap.String("request_id", id))
	}
	base = append(base, fields...)
	s.logger.Debug("operation started", base...)
	return &zapSpan{logger: s.logger.With(base...), start: s.now(), now: s.now}
}

type zapSpan struct {
	logger *zap.Logger
	start  time.Time
	now    func() time.Time
}

func (s *zapSpan) Succeeded(fields ...zap.Field) {
	fields = append(fields, zap.Duration("elapsed", s.now().Sub(s.start)))
	s.logger.Info("operation succeeded", fields...)
}

func (s *zapSpan) Failed(kind models.FailureKind, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("kind", string(kind)),
		zap.Duration("elapsed", s.now().Sub(s.start)),
	)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	switch kind {
	case models.KindStore, models.KindInternal:
		s.logger.Error("operation failed", fields...)
	default:
		s.logger.Warn("operation failed", fields...)
	}
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Started(context.Context, string, ...zap.Field) Span { return nopSpan{} }

type nopSpan struct{}

func (nopSpan) Succeeded(...zap.Field) {}

func (nopSpan) Failed(models.FailureKind, error, ...zap.Field) {}
