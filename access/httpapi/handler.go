// Package httpapi expõe o gateway público de áudio e a API de conta em gin.
package httpapi

import (
	"net/http"
	"time"

	"public-audio-gateway/access/application"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	cacheControlPublicAudio = "public, max-age=3600"
	headerAudioSlug         = "X-Audio-Slug"
)

type Handler struct {
	Gateway application.Gateway
	Usage   application.UsageService
	Sharing application.Sharing
	Keys    application.Keys

	// ClientKey identifica quem tocou o áudio nos eventos; nil usa c.ClientIP().
	ClientKey func(r *http.Request) string
}

// Register monta as rotas. publicMW roda só na rota pública de áudio
// (tipicamente o rate limit por IP).
func (h *Handler) Register(r gin.IRouter, publicMW ...gin.HandlerFunc) {
	r.GET("/healthz", h.Health)

	public := append([]gin.HandlerFunc{}, publicMW...)
	r.GET("/api/v/:slug", append(public, h.ServePublicAudio)...)

	v1 := r.Group("/api/v1", h.RequireAPIKey)
	v1.GET("/usage", h.GetUsage)
	v1.GET("/assets", h.ListAssets)
	v1.POST("/assets/:id/share", h.ToggleSharing)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ServePublicAudio handles GET /api/v/:slug
func (h *Handler) ServePublicAudio(c *gin.Context) {
	slug := c.Param("slug")

	client := c.ClientIP()
	if h.ClientKey != nil {
		client = h.ClientKey(c.Request)
	}

	res, err := h.Gateway.Resolve(c.Request.Context(), slug, client)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", res.ContentType)
	c.Header("Cache-Control", cacheControlPublicAudio)
	c.Header(headerAudioSlug, res.Slug)
	c.Redirect(http.StatusFound, res.URL)
}

type usageResponse struct {
	Credits               int        `json:"credits"`
	MonthlyPlays          int        `json:"monthlyPlays"`
	MonthlyPlaysLimit     int        `json:"monthlyPlaysLimit"`
	MonthlyPlaysRemaining int        `json:"monthlyPlaysRemaining"`
	MonthlyPlaysReset     *time.Time `json:"monthlyPlaysReset"`
	PublicAssets          int64      `json:"publicAssets"`
	PublicAssetsLimit     int        `json:"publicAssetsLimit"`
}

// GetUsage handles GET /api/v1/usage
func (h *Handler) GetUsage(c *gin.Context) {
	u, err := h.Usage.Summary(c.Request.Context(), accountFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, usageResponse{
		Credits:               u.Credits,
		MonthlyPlays:          u.MonthlyPlays,
		MonthlyPlaysLimit:     u.MonthlyPlaysLimit,
		MonthlyPlaysRemaining: u.MonthlyPlaysRemaining,
		MonthlyPlaysReset:     u.MonthlyPlaysReset,
		PublicAssets:          u.PublicAssets,
		PublicAssetsLimit:     u.PublicAssetsLimit,
	})
}

type assetResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	AudioURL           string     `json:"audioUrl"`
	IsPublic           bool       `json:"isPublic"`
	PublicSlug         *string    `json:"publicSlug"`
	PublicURL          *string    `json:"publicUrl"`
	AccessCount        int64      `json:"accessCount"`
	MonthlyAccessCount int64      `json:"monthlyAccessCount"`
	LastAccessed       *time.Time `json:"lastAccessed"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// ListAssets handles GET /api/v1/assets
func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.Sharing.List(c.Request.Context(), accountFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		item := assetResponse{
			ID:                 a.ID,
			Name:               a.Name,
			AudioURL:           a.AudioURL,
			IsPublic:           a.IsPublic,
			PublicSlug:         a.PublicSlug,
			AccessCount:        a.AccessCount,
			MonthlyAccessCount: a.MonthlyAccessCount,
			LastAccessed:       a.LastAccessed,
			CreatedAt:          a.CreatedAt,
			UpdatedAt:          a.UpdatedAt,
		}
		if a.Resolvable() {
			u := h.Sharing.PublicURL(*a.PublicSlug)
			item.PublicURL = &u
		}
		out = append(out, item)
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

// ToggleSharing handles POST /api/v1/assets/:id/share
func (h *Handler) ToggleSharing(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	res, err := h.Sharing.Toggle(c.Request.Context(), accountFrom(c), assetID)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"success": true, "isPublic": res.Public}
	if res.Public {
		body["publicSlug"] = res.Slug
		body["publicUrl"] = res.URL
	}
	c.JSON(http.StatusOK, body)
}
