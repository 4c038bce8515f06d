package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/config"
	"github.com/somahq/soma/internal/email"
	"github.com/somahq/soma/internal/rate"

	_ "github.com/somahq/soma/internal/store/adapters/memory"
)

type discard struct{}

func (discard) Send(context.Context, email.Message) error { return nil }

func TestBuild_MemoryStack(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	cfg.Rate.Enabled = true

	app, err := Build(context.Background(), cfg, Options{Registry: prometheus.NewRegistry(), Mailer: discard{}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	w := httptest.NewRecorder()
	app.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store_memory"`)

	w = httptest.NewRecorder()
	app.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/store-id?email=x@example.com", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRun_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(config.Default(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, srv, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestBuildLimiter(t *testing.T) {
	cfg := config.Default()
	a := &App{}

	cfg.Rate.Enabled = false
	l, err := a.buildLimiter(cfg)
	require.NoError(t, err)
	assert.Equal(t, rate.Noop{}, l)

	cfg.Rate.Enabled = true
	cfg.Rate.Driver = "memory"
	l, err = a.buildLimiter(cfg)
	require.NoError(t, err)
	assert.IsType(t, &rate.MemoryLimiter{}, l)

	cfg.Rate.Driver = "etcd"
	_, err = a.buildLimiter(cfg)
	assert.Error(t, err)
}
