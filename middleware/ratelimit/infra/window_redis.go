package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"public-audio-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// incr + expira na primeira batida da janela; roda atômico no servidor.
var windowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisWindowCounter implementa domain.WindowCounter em Redis.
//
// Diferente do MemoryWindowCounter, o limite vale para todas as instâncias
// do gateway que compartilham o mesmo Redis.
type RedisWindowCounter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

type RedisWindowOption func(*RedisWindowCounter)

func WithWindowPrefix(prefix string) RedisWindowOption {
	return func(c *RedisWindowCounter) { c.prefix = strings.Trim(prefix, ":") }
}

func NewRedisWindowCounter(rdb *redis.Client, limit int64, window time.Duration, opts ...RedisWindowOption) *RedisWindowCounter {
	c := &RedisWindowCounter{
		rdb:    rdb,
		prefix: "ratelimit:window",
		limit:  limit,
		window: window,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisWindowCounter) Limit() int64 { return c.limit }

func (c *RedisWindowCounter) Hit(ctx context.Context, key domain.Key) (domain.WindowState, error) {
	ms := c.window.Milliseconds()
	if ms <= 0 {
		ms = 1
	}

	vals, err := windowScript.Run(ctx, c.rdb, []string{c.prefix + ":" + string(key)}, ms).Int64Slice()
	if err != nil {
		return domain.WindowState{}, err
	}
	if len(vals) != 2 {
		return domain.WindowState{}, fmt.Errorf("ratelimit: unexpected window script reply %v", vals)
	}

	return domain.WindowState{
		Count:   vals[0],
		ResetAt: c.now().Add(time.Duration(vals[1]) * time.Millisecond),
	}, nil
}
