package server

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/SmitUplenchwar2687/rewind/internal/clock"
)

// statusWriter remembers the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack passes through to the underlying writer for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer %T cannot hijack", w.ResponseWriter)
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// LoggingMiddleware wraps an http.Handler and logs one debug line per request.
func LoggingMiddleware(next http.Handler, logger *slog.Logger, clk clock.Clock) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clk.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		remote := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			remote = forwarded
		}
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"remote", remote,
			"duration", clk.Since(start))
	})
}
