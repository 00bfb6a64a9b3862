package core

import "context"

// Context keys for run options
type contextKey string

const suppressHeaderKey contextKey = "suppressHeader"

// WithSuppressHeader marks the context so that a build prints no run footer.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether the run footer should be suppressed
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show footer
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
