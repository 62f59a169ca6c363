package gateway

import (
	"net"
	"net/http"
	"strings"
)

// clientIP resolves the caller's address for the x-forwarded-for chain and
// the per-IP rate limiter. X-Forwarded-For and X-Real-IP are trusted here
// because the gateway is the edge its deployment fronts with a sanitizing
// proxy; a spoofable header never reaches authorization decisions, only
// logging and throttling.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			candidate := strings.TrimSpace(part)
			if ip := net.ParseIP(candidate); ip != nil {
				return ip.String()
			}
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		if ip := net.ParseIP(xr); ip != nil {
			return ip.String()
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
