package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Terminate(ctx) })

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)

	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
		DB:   0,
	})
	require.NoError(t, client.Ping(ctx).Err())

	return client
}

func TestRedisStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	client := startRedis(t)
	store := NewRedisStore(client, WithKeyPrefix("test"), WithTimeout(time.Second))
	ctx := context.Background()
	now := time.UnixMilli(time.Now().UnixMilli())

	t.Run("Allow requests within limit", func(t *testing.T) {
		policy := Policy{Interval: time.Minute, MaxRequests: 5}
		key := "contact:192.168.1.1"

		for i := 1; i <= policy.MaxRequests; i++ {
			entry, admitted, err := store.Take(ctx, key, policy, now)
			require.NoError(t, err)
			assert.True(t, admitted)
			assert.Equal(t, i, entry.Count)
			assert.Equal(t, now.Add(policy.Interval), entry.ResetAt)
		}
	})

	t.Run("Block requests exceeding limit without incrementing", func(t *testing.T) {
		policy := Policy{Interval: time.Minute, MaxRequests: 3}
		key := "login:192.168.1.2"

		for i := 0; i < policy.MaxRequests; i++ {
			_, admitted, err := store.Take(ctx, key, policy, now)
			require.NoError(t, err)
			assert.True(t, admitted)
		}

		for i := 0; i < 2; i++ {
			entry, admitted, err := store.Take(ctx, key, policy, now.Add(time.Second))
			require.NoError(t, err)
			assert.False(t, admitted)
			assert.Equal(t, policy.MaxRequests, entry.Count)
		}

		count, err := client.HGet(ctx, "test:"+key, "count").Int()
		require.NoError(t, err)
		assert.Equal(t, policy.MaxRequests, count)
	})

	t.Run("Window rollover", func(t *testing.T) {
		policy := Policy{Interval: time.Second, MaxRequests: 1}
		key := "newsletter:192.168.1.3"

		_, admitted, err := store.Take(ctx, key, policy, now)
		require.NoError(t, err)
		assert.True(t, admitted)

		_, admitted, err = store.Take(ctx, key, policy, now.Add(500*time.Millisecond))
		require.NoError(t, err)
		assert.False(t, admitted)

		entry, admitted, err := store.Take(ctx, key, policy, now.Add(1001*time.Millisecond))
		require.NoError(t, err)
		assert.True(t, admitted)
		assert.Equal(t, 1, entry.Count)
		assert.Equal(t, now.Add(2001*time.Millisecond), entry.ResetAt)
	})

	t.Run("Key expires in redis", func(t *testing.T) {
		policy := Policy{Interval: 10 * time.Second, MaxRequests: 1}
		key := "resource:192.168.1.4"

		_, _, err := store.Take(ctx, key, policy, now)
		require.NoError(t, err)

		ttl, err := client.PTTL(ctx, "test:"+key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 10*time.Second)
		assert.LessOrEqual(t, ttl, 11*time.Second)
	})

	t.Run("Concurrent requests never exceed the ceiling", func(t *testing.T) {
		policy := Policy{Interval: time.Minute, MaxRequests: 20}
		key := "contact:192.168.1.5"

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		wg.Add(100)
		for i := 0; i < 100; i++ {
			go func() {
				defer wg.Done()
				_, admitted, err := store.Take(ctx, key, policy, now)
				if err == nil && admitted {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, policy.MaxRequests, allowed)
	})

	t.Run("Limiter over redis", func(t *testing.T) {
		rl := NewRateLimiter(store)
		policy := MustPolicy(Strict)
		key := "login:192.168.1.100"

		for i := 0; i < policy.MaxRequests; i++ {
			result := rl.Check(ctx, key, policy)
			require.True(t, result.Allowed)
			assert.Equal(t, policy.MaxRequests-i-1, result.Remaining)
		}

		result := rl.Check(ctx, key, policy)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
	})

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStore(client, WithTimeout(100*time.Millisecond))
	defer func() { _ = store.Close() }()

	_, _, err := store.Take(context.Background(), "login:10.0.0.1", MustPolicy(Strict), time.Now())
	require.Error(t, err)

	rl := NewRateLimiter(store, WithFailurePolicy(FailClosed))
	result := rl.Check(context.Background(), "login:10.0.0.1", MustPolicy(Strict))
	assert.False(t, result.Allowed)

	fallback := NewFallbackStore(store, NewMemoryStore(), DefaultBreakerConfig(), nil, nil)
	result = NewRateLimiter(fallback, WithFailurePolicy(FailClosed)).Check(context.Background(), "login:10.0.0.1", MustPolicy(Strict))
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}
