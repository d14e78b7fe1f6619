// Package logger provides structured logging built on the Uber zap library,
// plus an HTTP middleware that logs every request.
package logger

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// New builds a SugaredLogger for the given level. Production mode switches
// to JSON output with sampling.
func New(level string, production bool) (*zap.SugaredLogger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	if production {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zl.Sugar(), nil
}

// wrappedWriter captures the status code and size written downstream.
type wrappedWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *wrappedWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *wrappedWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Middleware logs method, path, status, size, and duration for every request.
func Middleware(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &wrappedWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			log.Infow("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.status,
				"size", ww.size,
				"duration", time.Since(start),
			)
		})
	}
}
