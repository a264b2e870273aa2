package async

import (
	"context"

	"go.uber.org/zap"

	appLogger "github.com/fastygo/followup/pkg/logger"
)

// Func is a unit of background work.
type Func func(ctx context.Context) error

// Dispatcher runs fn without making the caller wait for it.
type Dispatcher func(ctx context.Context, logger *zap.Logger, name string, fn Func)

// Dispatch runs fn on its own goroutine with a fresh background context, so
// the caller's deadline or cancellation does not cut it short. Errors and
// panics are logged and otherwise dropped.
func Dispatch(ctx context.Context, logger *zap.Logger, name string, fn Func) {
	if logger == nil {
		logger = zap.NewNop()
	}
	bgCtx := context.Background()
	if reqID := appLogger.RequestID(ctx); reqID != "" {
		bgCtx = appLogger.ContextWithRequestID(bgCtx, reqID)
	}
	log := appLogger.WithRequestID(bgCtx, logger).With(zap.String("job", name))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in async handler", zap.Any("panic", r))
			}
		}()

		if err := fn(bgCtx); err != nil {
			log.Error("async handler failed", zap.Error(err))
		}
	}()
}

// Inline runs fn on the calling goroutine with the same logging contract as
// Dispatch. Tests use it to make background work deterministic.
func Inline(ctx context.Context, logger *zap.Logger, name string, fn Func) {
	if logger == nil {
		logger = zap.NewNop()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in async handler", zap.String("job", name), zap.Any("panic", r))
		}
	}()
	if err := fn(ctx); err != nil {
		logger.Error("async handler failed", zap.String("job", name), zap.Error(err))
	}
}
