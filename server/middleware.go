package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"airbnb-dashboard/utils"
)

const traceHeader = "X-Trace-ID"

type loggerKey struct{}

// LoggerMiddleware tags each request with a trace id and logs its start
// and outcome. A valid incoming X-Trace-ID is reused.
func LoggerMiddleware(logger *utils.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(traceHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}
			w.Header().Set(traceHeader, traceID)

			reqLogger := logger.With("trace_id", traceID)
			ctx := context.WithValue(r.Context(), loggerKey{}, reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqLogger.Debug("[http] %s %s started", r.Method, r.URL.Path)
			next.ServeHTTP(ww, r.WithContext(ctx))
			reqLogger.Info("[http] %s %s → %d (%d bytes, %dms)",
				r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start).Milliseconds())
		})
	}
}

// loggerFrom returns the request logger, or fallback outside a request.
func loggerFrom(ctx context.Context, fallback *utils.Logger) *utils.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*utils.Logger); ok {
		return l
	}
	return fallback
}
