package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/topichub/internal/config"
	"github.com/nfrund/topichub/internal/endpoint"
	"github.com/nfrund/topichub/internal/groups"
)

func testConfig(t *testing.T, backend config.Backend) *config.Config {
	t.Helper()
	t.Setenv("TOPICHUB_BACKEND", string(backend))
	t.Setenv("TOPICHUB_REDIS_URL", "redis://127.0.0.1:1/0")
	t.Setenv("TOPICHUB_REDIS_RETRY_ATTEMPTS", "1")
	t.Setenv("TOPICHUB_REDIS_RETRY_INTERVAL", "10ms")
	cfg, err := config.Parse()
	require.NoError(t, err)
	return cfg
}

func startRegistry(t *testing.T, a *App) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		a.Registry.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func TestNew_MemoryBackend(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, config.BackendMemory))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	startRegistry(t, a)

	ctx := context.Background()
	mb := endpoint.NewMailbox(4)
	require.NoError(t, a.Registry.Subscribe(ctx, mb, "news"))

	rec := httptest.NewRecorder()
	a.Server.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/topics/news", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), mb.ID())
}

func TestNew_ReplicatedBackend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, testConfig(t, config.BackendReplicated))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	startRegistry(t, a)

	require.NoError(t, a.Registry.Create(ctx, "replicated"))
	exists, err := a.Registry.Exists(ctx, "replicated")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNew_RedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := New(ctx, testConfig(t, config.BackendRedis))
	require.Error(t, err)
	assert.Contains(t, err.Error(), groups.ErrRedisNotReady.Error())
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, config.BackendMemory)
	cfg.HTTPAddr = "127.0.0.1:0"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
