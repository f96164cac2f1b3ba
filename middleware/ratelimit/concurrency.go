package ratelimit

import (
	"net/http"
	"time"

	"public-audio-gateway/middleware/ratelimit/application"
	"public-audio-gateway/middleware/ratelimit/infra"

	"github.com/gin-gonic/gin"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
}

// ConcurrencyMiddleware limita requisições em voo; sem vaga dentro do
// AcquireTimeout responde RejectStatus (503 por padrão). Max <= 0 desliga.
func ConcurrencyMiddleware(opts ConcurrencyOptions) gin.HandlerFunc {
	if opts.Max <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(c *gin.Context) {
		release, ok := svc.Acquire(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(opts.RejectStatus, gin.H{"error": http.StatusText(opts.RejectStatus)})
			return
		}
		defer release()

		c.Next()
	}
}
