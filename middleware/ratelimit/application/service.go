package application

import (
	"context"
	"log"
	"time"

	"public-audio-gateway/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação do rate limit.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Se Window estiver configurado ele tem precedência sobre Store.
type Service struct {
	Window     domain.WindowCounter
	Store      domain.LimiterStore
	RetryAfter time.Duration

	now func() time.Time
}

func (s Service) Decide(ctx context.Context, key domain.Key) domain.Decision {
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}
	if s.Window != nil {
		return s.decideWindow(ctx, key)
	}
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true}
	}
	if lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.RetryAfter}
}

func (s Service) decideWindow(ctx context.Context, key domain.Key) domain.Decision {
	limit := s.Window.Limit()

	st, err := s.Window.Hit(ctx, key)
	if err != nil {
		// fail-open: throttle é mitigação de abuso, não pode derrubar o serviço
		log.Printf("rate limit counter error key=%q: %v", key, err)
		return domain.Decision{Allowed: true, Limit: limit, Remaining: limit}
	}

	remaining := limit - st.Count
	if remaining < 0 {
		remaining = 0
	}
	if st.Count <= limit {
		return domain.Decision{Allowed: true, Limit: limit, Remaining: remaining}
	}

	retry := s.RetryAfter
	if !st.ResetAt.IsZero() {
		now := time.Now
		if s.now != nil {
			now = s.now
		}
		if d := st.ResetAt.Sub(now()); d > 0 {
			retry = d
		}
	}
	return domain.Decision{Allowed: false, RetryAfter: retry, Limit: limit, Remaining: 0}
}
