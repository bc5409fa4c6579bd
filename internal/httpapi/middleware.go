package httpapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const maxLoggedBody = 512

// statusRecorder keeps the status, size and the start of the body so failed
// requests can be logged with their error payload.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	wroteHeader  bool
	bytesWritten int
	logBody      bytes.Buffer
	maxLogBytes  int
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	r.wroteHeader = true
	written, err := r.ResponseWriter.Write(payload)
	r.bytesWritten += written

	if room := r.maxLogBytes - r.logBody.Len(); room > 0 {
		chunk := payload[:written]
		if len(chunk) > room {
			chunk = chunk[:room]
			r.truncated = true
		}
		r.logBody.Write(chunk)
	} else if written > 0 {
		r.truncated = true
	}
	return written, err
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				maxLogBytes:    maxLoggedBody,
			}
			next.ServeHTTP(recorder, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.statusCode,
				"bytes", recorder.bytesWritten,
				"duration", time.Since(started),
				"request_id", middleware.GetReqID(r.Context()),
			}
			switch {
			case recorder.statusCode >= http.StatusInternalServerError:
				logger.Error("request failed", append(attrs, "body", recorder.logBody.String(), "truncated", recorder.truncated)...)
			case recorder.statusCode >= http.StatusBadRequest:
				logger.Warn("request rejected", append(attrs, "body", recorder.logBody.String(), "truncated", recorder.truncated)...)
			default:
				logger.Info("request", attrs...)
			}
		})
	}
}
