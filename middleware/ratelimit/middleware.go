package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"public-audio-gateway/middleware/ratelimit/application"
	"public-audio-gateway/middleware/ratelimit/domain"

	"github.com/gin-gonic/gin"
)

type KeyFunc func(r *http.Request) string

// RejectFunc escreve a resposta de bloqueio. O status já vem resolvido.
type RejectFunc func(c *gin.Context, status int, dec domain.Decision)

type Options struct {
	Window              domain.WindowCounter
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustProxyHeaders   bool
	RejectStatus        int
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	OnReject            RejectFunc
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// cabeçalhos de proxy consultados em ordem; o último é o do Cloudflare
var proxyIPHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"}

// DefaultKeyFunc identifica o cliente: keyHeader (se houver), depois os
// cabeçalhos de proxy (se confiáveis), depois RemoteAddr e por fim "unknown".
func DefaultKeyFunc(keyHeader string, trustProxy bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustProxy {
			for _, h := range proxyIPHeaders {
				v := r.Header.Get(h)
				if v == "" {
					continue
				}
				// X-Forwarded-For: o primeiro IP é o cliente original
				if ip := strings.TrimSpace(strings.Split(v, ",")[0]); ip != "" {
					return ip
				}
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// DefaultReject responde {"error":"Too many requests"}.
func DefaultReject(c *gin.Context, status int, _ domain.Decision) {
	c.AbortWithStatusJSON(status, gin.H{"error": "Too many requests"})
}

func Middleware(opts Options) gin.HandlerFunc {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustProxyHeaders)
	}
	if opts.OnReject == nil {
		opts.OnReject = DefaultReject
	}

	svc := application.Service{
		Window:     opts.Window,
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(c *gin.Context) {
		r := c.Request
		key := opts.KeyFn(r)

		dec := svc.Decide(r.Context(), domain.Key(key))

		if opts.AddRateLimitHeaders {
			h := c.Writer.Header()
			h.Set("X-RateLimit-Key", key)
			if dec.Limit > 0 {
				h.Set("X-RateLimit-Limit", formatInt64(dec.Limit))
				h.Set("X-RateLimit-Remaining", formatInt64(dec.Remaining))
			} else if ri, ok := opts.Store.(rateInfo); ok {
				h.Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
				h.Set("X-RateLimit-Burst", formatInt(ri.Burst()))
			}
		}

		if opts.Stats != nil {
			_ = opts.Stats.Record(r.Context(), domain.StatsEvent{
				Key:     domain.Key(key),
				Allowed: dec.Allowed,
				Method:  r.Method,
				Path:    r.URL.Path,
				Route:   c.FullPath(),
				At:      time.Now(),
			})
		}
		if !dec.Allowed {
			c.Header("Retry-After", formatInt(retryAfterSeconds(dec.RetryAfter)))
			opts.OnReject(c, opts.RejectStatus, dec)
			return
		}

		c.Next()
	}
}
