package httpapi

import (
	"errors"
	"log"
	"net/http"

	"public-audio-gateway/access/domain"

	"github.com/gin-gonic/gin"
)

// writeError traduz erros de domínio em status + {"error": ...}.
// Qualquer coisa não mapeada é logada e vira 500 genérico.
func writeError(c *gin.Context, err error) {
	var quota *domain.QuotaExceededError

	switch {
	case errors.As(err, &quota):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "Monthly play limit reached",
			"limit":   quota.Limit,
			"current": quota.Current,
		})
	case errors.Is(err, domain.ErrAssetNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, domain.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrPublicAssetLimit):
		c.JSON(http.StatusForbidden, gin.H{"error": "Public asset limit reached"})
	case errors.Is(err, domain.ErrSlugExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to generate unique slug"})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
