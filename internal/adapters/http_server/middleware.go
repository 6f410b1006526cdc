package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"overrated_products/internal/adapters/observability"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// RateLimit allows n requests per minute per client IP. RealIP runs first, so
// RemoteAddr already reflects proxy headers.
func RateLimit(n int) func(http.Handler) http.Handler {
	if n <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(n, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "scoring rate limit exceeded", nil)
		}),
	)
}

// statusRecorder remembers the first status written; handlers that only call
// Write report 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// serveRecorded runs next and reports the matched route pattern (raw path for
// unmatched requests), the status and the elapsed time.
func serveRecorded(next http.Handler, w http.ResponseWriter, r *http.Request) (string, int, time.Duration) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w}
	next.ServeHTTP(rec, r)
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	return route, rec.code(), time.Since(start)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, status, took := serveRecorded(next, w, r)
		observability.ObserveHTTP(route, r.Method, status, took)
	})
}

// Logger emits one http_request line per request. Server errors log at warn
// so they survive LOG_LEVEL=warn.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, status, took := serveRecorded(next, w, r)
			ev := l.Info()
			if status >= http.StatusInternalServerError {
				ev = l.Warn()
			}
			ev.Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Dur("duration", took).
				Str("remote", clientIP(r)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
