package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"public-audio-gateway/access/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const accountContextKey = "account_id"

// RequireAPIKey valida "Authorization: Bearer dk_live_..." e guarda a conta no contexto.
func (h *Handler) RequireAPIKey(c *gin.Context) {
	authz := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(authz, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	accountID, err := h.Keys.Authenticate(c.Request.Context(), token)
	if errors.Is(err, domain.ErrUnauthorized) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err != nil {
		log.Printf("api key authentication error: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.Set(accountContextKey, accountID)
	c.Next()
}

func accountFrom(c *gin.Context) uuid.UUID {
	v, _ := c.Get(accountContextKey)
	id, _ := v.(uuid.UUID)
	return id
}
