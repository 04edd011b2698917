package obs

import (
	"context"
	"fleet-route-service/internal/platform/logger"
	"sync/atomic"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

var current atomic.Value

func init() {
	current.Store(loggerBox{logger.Nop()})
}

type loggerBox struct{ l logger.ILogger }

// SetLogger replaces the logger used for operation timings.
func SetLogger(l logger.ILogger) {
	current.Store(loggerBox{l})
}

func log() logger.ILogger {
	return current.Load().(loggerBox).l
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time starts a timer for op. Call the returned func with a pointer to the
// operation's named error so failures are logged alongside the duration.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		fields := []logger.Field{
			logger.String("req_id", reqID),
			logger.String("op", name),
			logger.Int64("dur_ms", dur.Milliseconds()),
		}

		if errp != nil && *errp != nil {
			log().Warning("operation failed", append(fields, logger.Error(*errp))...)
			return
		}
		log().Info("operation", fields...)
	}
}
