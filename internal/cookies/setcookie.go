// Package cookies relays authentication cookies between the browser and the
// backend API without interpreting them.
package cookies

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/metrics"
)

const (
	expiresMarker = "Expires="
	joinDelimiter = ", "
)

// Split normalizes a backend Set-Cookie value into individual cookie strings.
//
// The check order matters: a joined value carrying Expires= is never split,
// because the comma inside the date would be taken for a delimiter.
func Split(list []string, joined string) []string {
	if len(list) > 0 {
		return list
	}
	switch {
	case joined == "":
		return nil
	case strings.Contains(joined, expiresMarker):
		return []string{joined}
	case strings.Contains(joined, joinDelimiter):
		var out []string
		for _, part := range strings.Split(joined, joinDelimiter) {
			if part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return []string{joined}
	}
}

// FromHeader reads the Set-Cookie values of a backend response. Header lines
// are always the list form and are returned as-is.
func FromHeader(h http.Header) []string {
	return Split(h.Values("Set-Cookie"), "")
}

// Forward copies the backend's cookies onto the client response verbatim.
// A cookie that does not parse is logged and forwarded anyway.
func Forward(resp *http.Response, w http.ResponseWriter, logger *zap.Logger) {
	if resp == nil || w == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			metrics.CookieForwardFailures.Inc()
			logger.Error("set-cookie forwarding failed", zap.Any("panic", rec))
		}
	}()

	for _, raw := range FromHeader(resp.Header) {
		if _, err := http.ParseSetCookie(raw); err != nil {
			metrics.CookieForwardFailures.Inc()
			logger.Warn("forwarding unparseable set-cookie", zap.Error(err))
		}
		w.Header().Add("Set-Cookie", raw)
		metrics.CookiesForwarded.Inc()
	}
}

// ForwardRequest copies the browser's Cookie header onto the outbound request.
func ForwardRequest(r *http.Request, out *http.Request) {
	if r == nil || out == nil {
		return
	}
	if header := RequestHeader(r); header != "" {
		out.Header.Set("Cookie", header)
	}
}

// RequestHeader returns the incoming Cookie header, joining repeated lines.
func RequestHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}
