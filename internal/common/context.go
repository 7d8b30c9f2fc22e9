package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeySourceURL contextKey = "source_url"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithSourceURL records the product URL being processed
func WithSourceURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, ContextKeySourceURL, url)
}

// SourceURLFromContext extracts the product URL from context
func SourceURLFromContext(ctx context.Context) string {
	if url, ok := ctx.Value(ContextKeySourceURL).(string); ok {
		return url
	}
	return ""
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
