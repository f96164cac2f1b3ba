package infra

import (
	"context"
	"sync"
	"time"

	"public-audio-gateway/middleware/ratelimit/domain"
)

// MemoryWindowCounter implementa domain.WindowCounter em memória, protegido por mutex.
//
// Só garante o limite dentro de um processo. Entradas expiradas são podadas
// de forma oportunista quando o mapa passa de pruneThreshold chaves.
type MemoryWindowCounter struct {
	mu      sync.Mutex
	entries map[string]windowEntry

	limit          int64
	window         time.Duration
	pruneThreshold int
	now            func() time.Time
}

type windowEntry struct {
	count   int64
	resetAt time.Time
}

type WindowOption func(*MemoryWindowCounter)

func WithPruneThreshold(n int) WindowOption {
	return func(c *MemoryWindowCounter) { c.pruneThreshold = n }
}

// WithClock troca o relógio (usado nos testes).
func WithClock(now func() time.Time) WindowOption {
	return func(c *MemoryWindowCounter) { c.now = now }
}

func NewMemoryWindowCounter(limit int64, window time.Duration, opts ...WindowOption) *MemoryWindowCounter {
	c := &MemoryWindowCounter{
		entries:        make(map[string]windowEntry),
		limit:          limit,
		window:         window,
		pruneThreshold: 1000,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryWindowCounter) Limit() int64          { return c.limit }
func (c *MemoryWindowCounter) Window() time.Duration { return c.window }

func (c *MemoryWindowCounter) Hit(_ context.Context, key domain.Key) (domain.WindowState, error) {
	now := c.now()
	k := string(key)

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[k]
	if !ok || now.After(ent.resetAt) {
		ent = windowEntry{count: 1, resetAt: now.Add(c.window)}
		c.entries[k] = ent
		if c.pruneThreshold > 0 && len(c.entries) > c.pruneThreshold {
			c.pruneLocked(now)
		}
		return domain.WindowState{Count: ent.count, ResetAt: ent.resetAt}, nil
	}

	// passa do limite no máximo uma vez, o suficiente para sinalizar bloqueio
	if ent.count <= c.limit {
		ent.count++
		c.entries[k] = ent
	}
	return domain.WindowState{Count: ent.count, ResetAt: ent.resetAt}, nil
}

// Len devolve o número de chaves rastreadas.
func (c *MemoryWindowCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryWindowCounter) pruneLocked(now time.Time) {
	for k, ent := range c.entries {
		if now.After(ent.resetAt) {
			delete(c.entries, k)
		}
	}
}
