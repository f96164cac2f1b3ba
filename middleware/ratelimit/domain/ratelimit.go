package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

type Key string

// Limiter representa algo que pode decidir se uma ação é permitida agora.
//
// Implementação típica: token-bucket (golang.org/x/time/rate) na camada de infra.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave (ex: IP, API key, usuário).
// A implementação pode manter cache, TTL, etc.
type LimiterStore interface {
	Get(Key) Limiter
}

// WindowState é o retrato de uma janela fixa logo após um hit.
type WindowState struct {
	// Count já inclui o hit atual.
	Count   int64
	ResetAt time.Time
}

// WindowCounter conta hits por chave dentro de uma janela fixa.
//
// Hit incrementa o contador da chave e devolve o estado resultante. Quando não
// existe registro, ou a janela anterior já expirou, o contador recomeça em 1
// com uma nova janela. O incremento precisa ser atômico: implementações
// compartilhadas (Redis) garantem isso entre processos.
type WindowCounter interface {
	Hit(ctx context.Context, key Key) (WindowState, error)
	Limit() int64
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration

	// Limit/Remaining só são preenchidos pela janela fixa.
	Limit     int64
	Remaining int64
}
