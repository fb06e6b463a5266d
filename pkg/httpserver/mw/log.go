package mw

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"diynow/pkg/logger"
)

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// accessEntry collects what later middlewares learn about a request.
type accessEntry struct {
	userID int64
}

type accessKey struct{}

// noteUser records the authenticated user on the request's access entry.
func noteUser(ctx context.Context, userID int64) {
	if e, ok := ctx.Value(accessKey{}).(*accessEntry); ok {
		e.userID = userID
	}
}

// Log writes one access log line per request, tagged with the chi request id
// and the session user when there is one. Server errors log at error, client
// errors at warn. Health probes always log at debug; the handler reports
// a degraded check itself.
func Log(loggerClient logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}
			entry := &accessEntry{}

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), accessKey{}, entry)))

			if ww.status == 0 {
				ww.status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("remote_ip", r.RemoteAddr),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}
			if entry.userID != 0 {
				fields = append(fields, logger.Int64("user_id", entry.userID))
			}

			switch {
			case r.URL.Path == "/healthz":
				loggerClient.Debug("http request", fields...)
			case ww.status >= http.StatusInternalServerError:
				loggerClient.Error("http request", fields...)
			case ww.status >= http.StatusBadRequest:
				loggerClient.Warn("http request", fields...)
			default:
				loggerClient.Info("http request", fields...)
			}
		})
	}
}
