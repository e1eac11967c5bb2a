package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Implementa o passo de janela fixa (Advance) no próprio Redis para que ler, verificar e
// incrementar aconteçam em uma única ida e volta atômica.
// Retorna {admitido, contagem, reset_at em ms}.
var fixedWindowScript = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'count', 'reset_at')
local count = tonumber(fields[1])
local reset_at = tonumber(fields[2])
local now = tonumber(ARGV[1])
local interval = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local grace = tonumber(ARGV[4])

if count == nil or reset_at == nil or reset_at < now then
	reset_at = now + interval
	redis.call('HSET', KEYS[1], 'count', 1, 'reset_at', reset_at)
	redis.call('PEXPIRE', KEYS[1], interval + grace)
	return {1, 1, reset_at}
end

if count >= max then
	return {0, count, reset_at}
end

count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {1, count, reset_at}
`)

const (
	defaultRedisKeyPrefix = "ratelimit"
	defaultRedisTimeout   = 100 * time.Millisecond
	// Margem além do fim da janela antes do Redis descartar a chave
	expiryGrace = time.Second
)

type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

var _ Store = (*RedisStore)(nil)

type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// WithTimeout limita a duração de cada chamada ao Redis
func WithTimeout(timeout time.Duration) RedisOption {
	return func(r *RedisStore) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	r := &RedisStore{
		client:  client,
		prefix:  defaultRedisKeyPrefix,
		timeout: defaultRedisTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStore) Take(ctx context.Context, key string, policy Policy, now time.Time) (Entry, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := fixedWindowScript.Run(ctx, r.client, []string{r.key(key)},
		now.UnixMilli(),
		policy.Interval.Milliseconds(),
		policy.MaxRequests,
		expiryGrace.Milliseconds(),
	).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis fixed window script failed: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return Entry{}, false, fmt.Errorf("unexpected redis script reply: %v", raw)
	}

	admitted, okAdmitted := values[0].(int64)
	count, okCount := values[1].(int64)
	resetAt, okReset := values[2].(int64)
	if !okAdmitted || !okCount || !okReset {
		return Entry{}, false, fmt.Errorf("unexpected redis script reply types: %v", values)
	}

	return Entry{
		Count:   int(count),
		ResetAt: time.UnixMilli(resetAt),
	}, admitted == 1, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}
