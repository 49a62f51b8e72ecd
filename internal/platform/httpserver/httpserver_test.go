package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dugout/internal/platform/config"
)

func TestNewUsesConfiguredTimeouts(t *testing.T) {
	cfg := config.Config{
		Addr:             ":9090",
		HTTPReadTimeout:  3 * time.Second,
		HTTPWriteTimeout: 7 * time.Second,
		HTTPIdleTimeout:  time.Minute,
	}

	srv := New(cfg, http.NewServeMux())
	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 3*time.Second, srv.ReadTimeout)
	assert.Equal(t, 7*time.Second, srv.WriteTimeout)
	assert.Equal(t, time.Minute, srv.IdleTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
}

func TestNewDefaultsZeroTimeouts(t *testing.T) {
	srv := New(config.Config{Addr: ":8080"}, http.NewServeMux())
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Equal(t, 2*time.Minute, srv.IdleTimeout)
}
