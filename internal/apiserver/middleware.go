package apiserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDFrom returns the request ID placed in ctx by the middleware, or a
// fresh one.
func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// requestMiddleware assigns a request ID, logs the request, and converts
// handler panics into a 500 instead of tearing the process down.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic handling %s %s (request %s): %v", r.Method, r.URL.Path, requestID, rec)
				s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()

		s.logger.Debug("%s %s (request %s)", r.Method, r.URL.Path, requestID)
		next.ServeHTTP(w, r)
	})
}

// withMethod wraps a handler to enforce the HTTP method.
func (s *Server) withMethod(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			s.handleMethodNotAllowed(w, r)
			return
		}
		handler(w, r)
	}
}
