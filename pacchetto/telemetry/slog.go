package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// errorFormattingMiddleware expands error attributes into a group holding the
// message, the concrete type and, for joined errors, each branch.
func errorFormattingMiddleware(
	ctx context.Context,
	record slog.Record,
	next func(context.Context, slog.Record) error,
) error {
	formatted := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		formatted.AddAttrs(formatErrorAttr(attr))
		return true
	})
	return next(ctx, formatted)
}

func formatErrorAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindAny {
		return attr
	}
	err, ok := attr.Value.Any().(error)
	if !ok || err == nil {
		return attr
	}

	attrs := []any{
		slog.String("message", err.Error()),
		slog.String("type", fmt.Sprintf("%T", err)),
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		causes := make([]string, 0, len(joined.Unwrap()))
		for _, cause := range joined.Unwrap() {
			causes = append(causes, cause.Error())
		}
		attrs = append(attrs, slog.Any("causes", causes))
	}
	return slog.Group(attr.Key, attrs...)
}
