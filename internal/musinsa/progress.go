package musinsa

import (
	"context"
	"fmt"
)

// ProgressFunc receives human-readable crawl progress updates.
type ProgressFunc func(msg string)

type progressKey struct{}

// WithProgress attaches fn to ctx so scrape internals can report
// step-by-step progress to interactive callers.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress formats and delivers a progress message to the callback
// in ctx. Without a callback (MCP or scheduler mode) it is a no-op.
func ReportProgress(ctx context.Context, format string, args ...any) {
	fn, ok := ctx.Value(progressKey{}).(ProgressFunc)
	if !ok || fn == nil {
		return
	}
	if len(args) == 0 {
		fn(format)
		return
	}
	fn(fmt.Sprintf(format, args...))
}
