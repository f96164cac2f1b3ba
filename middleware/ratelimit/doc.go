// Package ratelimit fornece middlewares gin para rate limit e limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, acquire/timeout) sem net/http
//   - infra: implementações concretas (janela fixa em memória/Redis, token bucket, semáforo)
//   - ratelimit (este pacote): middlewares gin + extração de chave + tradução para status/headers
//
// Fluxo na rota pública de áudio:
//
//  1. Extrai a chave do cliente (header/X-Forwarded-For/X-Real-IP/CF-Connecting-IP/RemoteAddr)
//  2. Chama a camada application para obter a decisão
//  3. Se bloqueado, responde 429 com {"error":"Too many requests"} e Retry-After
//  4. Se permitido, segue para o handler do gateway
//
// Os parâmetros vêm do pacote config (RATE_LIMIT, RATE_WINDOW, RATE_ALGORITHM,
// CONCURRENCY_MAX, CONCURRENCY_TIMEOUT, ...).
package ratelimit
