package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address the request came from
// Priority: X-Real-IP > first X-Forwarded-For entry > RemoteAddr. Any port is stripped.
func ClientIP(r *http.Request) string {
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return stripPort(realIP)
	}

	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		// "client, proxy1, proxy2"
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return stripPort(first)
		}
	}

	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}
