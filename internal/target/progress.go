package target

import (
	"context"
	"fmt"
)

type progressKey struct{}

// ProgressFunc receives short status messages while a target resolves.
type ProgressFunc func(msg string)

// WithProgress attaches a progress callback to ctx.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func report(ctx context.Context, format string, args ...any) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(fmt.Sprintf(format, args...))
	}
}
