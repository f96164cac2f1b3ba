package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PlayEvent é publicado a cada resolução bem-sucedida de um slug.
type PlayEvent struct {
	AssetID   uuid.UUID `json:"asset_id"`
	AccountID uuid.UUID `json:"account_id"`
	Slug      string    `json:"slug"`
	Client    string    `json:"client"`
	At        time.Time `json:"at"`
}

// PlayPublisher entrega PlayEvent para consumidores externos (analytics).
// Falhas são best-effort: o gateway só registra em log.
type PlayPublisher interface {
	PublishPlay(ctx context.Context, ev PlayEvent) error
}
