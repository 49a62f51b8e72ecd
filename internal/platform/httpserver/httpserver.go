// Package httpserver builds the process HTTP server from configuration.
package httpserver

import (
	"net/http"
	"time"

	"dugout/internal/platform/config"
)

// New builds an HTTP server with deadlines taken from config. Zero-valued
// timeouts fall back to defaults so a partially filled Config stays safe.
func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeoutOr(cfg.HTTPReadTimeout, 10*time.Second),
		WriteTimeout:      timeoutOr(cfg.HTTPWriteTimeout, 30*time.Second),
		IdleTimeout:       timeoutOr(cfg.HTTPIdleTimeout, 2*time.Minute),
	}
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
