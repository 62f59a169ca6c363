package gateway

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// RequestLogger logs each completed request with its status, duration and
// client address, at a level keyed to the response class.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		level := slog.LevelInfo
		if ww.Status() >= 500 {
			level = slog.LevelError
		} else if ww.Status() >= 400 {
			level = slog.LevelWarn
		}
		slog.Log(r.Context(), level, "http_request_completed",
			"status", ww.Status(),
			"method", r.Method,
			"path", r.URL.Path,
			"duration", duration,
			"req_id", reqID,
			"ip", r.RemoteAddr,
		)
	})
}

// PanicRecovery captures panics, logs with a stack trace, reports to
// Sentry, and returns a generic 500.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				slog.Error("panic recovered",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"ip", r.RemoteAddr,
					"stack", stack,
				)
				if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
					hub.Recover(err)
				}
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// TagSentryScope attaches request-scoped tenant/account tags to the active
// Sentry hub so captured events carry their authorization context.
func TagSentryScope(tenantID, accountID, email, ip string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		if tenantID != "" {
			scope.SetTag("tenant_id", tenantID)
		}
		if accountID != "" {
			scope.SetUser(sentry.User{ID: accountID, Email: email, IPAddress: ip})
		}
	})
}

// CORS answers preflight requests and stamps allow-origin headers for
// origins in allowed. An empty allowlist disables CORS handling entirely —
// the gateway then never volunteers cross-origin access.
func CORS(allowed []string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		allowedSet[o] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if _, ok := allowedSet[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+HeaderConnectionString)
				}
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimiter throttles requests per client IP: a sync.Map of per-IP
// token buckets with a background goroutine that periodically drops the
// accumulated entries.
type IPRateLimiter struct {
	ips  sync.Map
	rps  rate.Limit
	burst int
}

// NewIPRateLimiter builds a limiter and starts its cleanup goroutine.
func NewIPRateLimiter(rps rate.Limit, burst int) *IPRateLimiter {
	l := &IPRateLimiter{rps: rps, burst: burst}
	go l.cleanupLoop()
	return l
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	if v, ok := l.ips.Load(ip); ok {
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.rps, l.burst)
	l.ips.Store(ip, limiter)
	return limiter
}

func (l *IPRateLimiter) cleanupLoop() {
	for {
		time.Sleep(10 * time.Minute)
		l.ips.Range(func(key, _ interface{}) bool {
			l.ips.Delete(key)
			return true
		})
	}
}

// Middleware enforces the per-IP rate limit.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.getLimiter(ip).Allow() {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
