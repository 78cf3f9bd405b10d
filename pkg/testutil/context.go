package testutil

import (
	"context"
	"net/http"
	"time"

	"rollcall/pkg/requestcontext"
)

// WithRequestTime pins the request-scoped clock, simulating the request time
// middleware so time-sensitive paths are deterministic under test.
func WithRequestTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}

// WithClientMetadata stamps the source address and device summary the client
// metadata middleware would extract from headers.
func WithClientMetadata(req *http.Request, sourceAddress, deviceSummary string) *http.Request {
	ctx := req.Context()
	if sourceAddress != "" {
		ctx = requestcontext.WithClientIP(ctx, sourceAddress)
	}
	if deviceSummary != "" {
		ctx = requestcontext.WithDeviceSummary(ctx, deviceSummary)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}
