package domain

import (
	"context"
	"time"
)

// StatsEvent representa um evento de decisão do rate limit.
//
// Method/Path são strings genéricas; Route é o padrão da rota (ex.: /api/v/:slug)
// e deve ser preferido a Path para não explodir cardinalidade com slugs.
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string
	Route  string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas do rate limit.
//
// O middleware trata erro como best-effort (não derruba request).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
