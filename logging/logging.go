package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"controltowerevents/controltower"
	"github.com/aws/aws-lambda-go/lambdacontext"
	slogctx "github.com/veqryn/slog-context"
)

// Init sets the global slog logger to JSON on stdout with slog-context
// support. Call this at the start of main() in each Lambda.
func Init(level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, level)))
}

// NewHandler returns a JSON handler on w that includes attributes stored in
// the context by WithAttrs and friends.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return slogctx.NewHandler(
		slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		}),
		&slogctx.HandlerOptions{
			Prependers: []slogctx.AttrExtractor{
				slogctx.ExtractPrepended,
			},
			Appenders: []slogctx.AttrExtractor{
				slogctx.ExtractAppended,
			},
		},
	)
}

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a level. Anything
// else is INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Middleware wraps a Lambda handler to inject the Lambda request ID into the logging context.
func Middleware[T any, R any](handler func(context.Context, T) (R, error)) func(context.Context, T) (R, error) {
	return func(ctx context.Context, input T) (R, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = slogctx.Prepend(ctx, "requestId", lc.AwsRequestID)
		}
		return handler(ctx, input)
	}
}

// WithAttrs adds attributes to the context that will be prepended to all log messages.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	return slogctx.Prepend(ctx, args...)
}

// WithLifecycleEvent adds the identifying attributes of e to the context.
func WithLifecycleEvent(ctx context.Context, e *controltower.LifecycleEvent) context.Context {
	variant := ""
	if e.ServiceEventDetails != nil {
		variant = e.ServiceEventDetails.DiscriminatorKey()
	}

	return slogctx.Prepend(ctx,
		slog.String("eventId", e.EventID),
		slog.String("eventName", e.EventName),
		slog.String("variant", variant),
		slog.String("accountId", e.UserIdentity.AccountID),
	)
}

// DecodeErrorAttrs describes a decode failure for logging.
func DecodeErrorAttrs(err error) []any {
	var de *controltower.DecodeError
	if !errors.As(err, &de) {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("kind", de.Kind.String()),
	}
	if de.Field != "" {
		attrs = append(attrs, slog.String("field", de.Field))
	}
	if len(de.Keys) > 0 {
		attrs = append(attrs, slog.Any("keys", de.Keys))
	}
	return attrs
}
