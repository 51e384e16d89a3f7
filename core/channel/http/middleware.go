package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/artpar/contentgate/adapters/metrics"
	"github.com/artpar/contentgate/adapters/session"
	"github.com/artpar/contentgate/core/channel/gql"
	"github.com/artpar/contentgate/core/runtime"
)

// NewLoggingMiddleware logs each request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if internalPath(r.URL.Path) {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// NewMetricsMiddleware records request counts and durations labelled by the
// matched route pattern, so item ids do not explode label cardinality.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := routePattern(r)
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(r.Method, route, statusLabel(ww.Status())).Inc()
		})
	}
}

func internalPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics"
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// statusLabel returns a string label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// loadSession decodes the session token of the request, if any, and attaches
// the request session to the context. Invalid or expired tokens are counted
// and the request continues anonymously.
func (c *Channel) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs := &requestSession{w: w, r: r, sessions: c.sessions}

		if token := c.sessions.FromRequest(r); token != "" {
			data, err := c.sessions.Decode(token)
			if err != nil {
				reason := session.Reason(err)
				if c.metrics != nil {
					c.metrics.SessionRejected(reason)
				}
				c.logger.Debug().Str("reason", reason).Msg("session rejected")
			} else {
				rs.data, rs.ok = data, true
			}
		}

		ctx := context.WithValue(r.Context(), sessionCtxKey{}, rs)
		ctx = gql.WithSession(ctx, rs)
		if rs.ok {
			ctx = runtime.WithActor(ctx, rs.data.ItemID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestSession is the session of one request. Start and End write the
// session cookie to the response.
type requestSession struct {
	w        http.ResponseWriter
	r        *http.Request
	sessions *session.Stateless

	mu   sync.Mutex
	data session.Data
	ok   bool
}

func (s *requestSession) Session() (session.Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.ok
}

func (s *requestSession) Start(data session.Data) (string, error) {
	token, _, err := s.sessions.Encode(data)
	if err != nil {
		return "", err
	}
	s.sessions.SetCookie(s.w, s.r, token)

	s.mu.Lock()
	s.data, s.ok = data, true
	s.mu.Unlock()
	return token, nil
}

func (s *requestSession) End() error {
	s.sessions.ClearCookie(s.w, s.r)

	s.mu.Lock()
	s.data, s.ok = session.Data{}, false
	s.mu.Unlock()
	return nil
}

var _ gql.SessionContext = (*requestSession)(nil)

type sessionCtxKey struct{}

// sessionOf returns the request session attached by loadSession.
func sessionOf(r *http.Request) *requestSession {
	if rs, ok := r.Context().Value(sessionCtxKey{}).(*requestSession); ok {
		return rs
	}
	return &requestSession{r: r}
}
