// Package clientmeta extracts client network metadata from incoming requests.
// The anomaly detector records the submitting address and a parsed device
// summary with every suspicious attempt, so this middleware runs early in the
// chain and the values travel via context.
package clientmeta

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"rollcall/pkg/requestcontext"
)

// Middleware extracts the client IP, the raw User-Agent, and a parsed device
// summary from the request and adds them to the context for handlers and
// services.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))

		if ua := r.Header.Get("User-Agent"); ua != "" {
			ctx = requestcontext.WithUserAgent(ctx, ua)
			ctx = requestcontext.WithDeviceSummary(ctx, DeviceSummary(ua))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceSummary condenses a User-Agent header into a short reviewer-friendly
// description. Unparseable agents are passed through truncated so the raw
// signal is never lost entirely.
func DeviceSummary(rawUA string) string {
	ua := useragent.New(rawUA)

	name, version := ua.Browser()
	if name == "" {
		return truncate(rawUA, 80)
	}

	summary := name
	if version != "" {
		if idx := strings.Index(version, "."); idx != -1 {
			version = version[:idx]
		}
		summary = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OS(); os != "" {
		summary = fmt.Sprintf("%s / %s", summary, os)
	}
	if ua.Mobile() {
		summary += " (mobile)"
	}
	if ua.Bot() {
		summary += " (bot)"
	}
	return summary
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6); strip the port.
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}

// WithClientMetadata injects client IP and device details into a context.
// Useful for service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, rawUA string) context.Context {
	ctx = requestcontext.WithClientIP(ctx, clientIP)
	if rawUA != "" {
		ctx = requestcontext.WithUserAgent(ctx, rawUA)
		ctx = requestcontext.WithDeviceSummary(ctx, DeviceSummary(rawUA))
	}
	return ctx
}
