package observability

import (
	"context"
	"log/slog"
)

// Attribute keys shared by every swallowed-failure log record.
const (
	AttrOperation = "operation"
	AttrKind      = "kind"
	AttrError     = "error"
)

// LogFailure records a failure that is handled locally rather than returned.
// kind is the failure class, e.g. "invocation" or "extraction".
func LogFailure(ctx context.Context, operation, kind string, err error, attrs ...slog.Attr) {
	logger := FromContext(ctx)

	all := make([]slog.Attr, 0, len(attrs)+3)
	all = append(all,
		slog.String(AttrOperation, operation),
		slog.String(AttrKind, kind),
	)

	if err != nil {
		all = append(all, slog.String(AttrError, err.Error()))
	}

	all = append(all, attrs...)

	logger.LogAttrs(ctx, slog.LevelWarn, "operation degraded", all...)
}
