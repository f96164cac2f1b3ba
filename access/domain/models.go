package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMonthlyWindow é a janela "mensal" rolante (30 dias), não o mês do calendário.
const DefaultMonthlyWindow = 30 * 24 * time.Hour

type Account struct {
	ID                uuid.UUID
	Credits           int
	MonthlyPlays      int
	MonthlyPlaysLimit int
	MonthlyPlaysReset *time.Time
	PublicAssetsLimit int
}

// Asset é um áudio gerado, opcionalmente compartilhado por slug.
type Asset struct {
	ID                 uuid.UUID
	AccountID          uuid.UUID
	Name               string
	AudioURL           string
	IsPublic           bool
	PublicSlug         *string
	AccessCount        int64
	MonthlyAccessCount int64
	LastAccessReset    *time.Time
	LastAccessed       *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Resolvable: só é servido publicamente com a flag ligada E slug definido.
func (a Asset) Resolvable() bool {
	return a.IsPublic && a.PublicSlug != nil && *a.PublicSlug != ""
}

type APIKey struct {
	ID         uuid.UUID
	AccountID  uuid.UUID
	Name       string
	KeyHash    string
	KeyPreview string
	CreatedAt  time.Time
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
}

func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// WindowElapsed diz se a janela iniciada em lastReset já venceu em now.
// lastReset nulo conta como vencida.
func WindowElapsed(lastReset *time.Time, now time.Time, window time.Duration) bool {
	if lastReset == nil {
		return true
	}
	return now.Sub(*lastReset) >= window
}

// PlayUsage é o estado da cota da conta depois de consumir uma reprodução.
type PlayUsage struct {
	Plays int
	Limit int
	Reset time.Time
}
