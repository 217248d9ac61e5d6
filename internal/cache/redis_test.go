package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/phim-stream/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestRedis(t *testing.T) *cache.Redis {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	r, err := cache.NewRedis("redis://"+endpoint+"/0", "test:")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return r
}

func TestRedis_GetSet(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	_, ok, err := r.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "key", []byte(`{"items":[]}`), time.Minute))

	value, ok, err := r.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"items":[]}`, string(value))
}

func TestRedis_Expiry(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "short", []byte("v"), 100*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, ok, err := r.Get(ctx, "short")
		return err == nil && !ok
	}, 3*time.Second, 50*time.Millisecond)
}

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := cache.NewRedis("not a url", "")
	assert.Error(t, err)
}

func TestRedis_Ping(t *testing.T) {
	r := newTestRedis(t)
	assert.NoError(t, r.Ping(context.Background()))
}

func TestRedis_PingUnreachable(t *testing.T) {
	r := cache.NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}), "test:")
	t.Cleanup(func() { r.Close() })

	assert.Error(t, r.Ping(context.Background()))
}
