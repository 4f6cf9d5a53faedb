package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ibocheck/internal/config"
	"github.com/turtacn/ibocheck/internal/infrastructure/monitoring/logging"
)

func TestNewServer_UsesConfig(t *testing.T) {
	cfg := config.NewDefaultConfig().Server
	cfg.Port = 9123
	s := NewServer(cfg, http.NewServeMux(), logging.NewNopLogger())

	assert.Equal(t, ":9123", s.srv.Addr)
	assert.Equal(t, cfg.ReadTimeout, s.srv.ReadTimeout)
	assert.Equal(t, cfg.WriteTimeout, s.srv.WriteTimeout)
	assert.NotNil(t, s.Handler())
}

func TestServer_ServeAndStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{HealthHandler: newHealth()})
	s := NewServer(config.NewDefaultConfig().Server, router, logging.NewNopLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "alive"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	s := NewServer(config.NewDefaultConfig().Server, http.NewServeMux(), logging.NewNopLogger())
	assert.NoError(t, s.Stop(context.Background()))
}
