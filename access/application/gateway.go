package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
)

// Gateway resolve um slug público para a URL do áudio, aplicando a cota
// mensal da conta e registrando o uso.
type Gateway struct {
	Accounts domain.AccountRepository
	Assets   domain.AssetRepository
	Events   domain.PlayPublisher
	// Window é a janela mensal rolante; 0 usa domain.DefaultMonthlyWindow.
	Window time.Duration

	now func() time.Time
}

type Resolution struct {
	AssetID     uuid.UUID
	AccountID   uuid.UUID
	Slug        string
	URL         string
	ContentType string
	Plays       int
	Limit       int
}

func (g Gateway) Resolve(ctx context.Context, slug, client string) (Resolution, error) {
	asset, err := g.Assets.FindAssetBySlug(ctx, slug)
	if errors.Is(err, domain.ErrAssetNotFound) {
		return Resolution{}, domain.ErrAssetNotFound
	}
	if err != nil {
		return Resolution{}, fmt.Errorf("lookup asset %q: %w", slug, err)
	}
	if !asset.Resolvable() {
		return Resolution{}, domain.ErrAssetNotFound
	}

	now := g.clock()
	window := g.window()

	// a cota vem primeiro: sem reprodução disponível nenhum contador muda
	usage, err := g.Accounts.ConsumePlay(ctx, asset.AccountID, now, window)
	if err != nil {
		return Resolution{}, fmt.Errorf("consume play: %w", err)
	}

	if err := g.Assets.RecordAccess(ctx, asset.ID, now, window); err != nil {
		return Resolution{}, fmt.Errorf("record asset access: %w", err)
	}

	if g.Events != nil {
		ev := domain.PlayEvent{
			AssetID:   asset.ID,
			AccountID: asset.AccountID,
			Slug:      slug,
			Client:    client,
			At:        now,
		}
		if err := g.Events.PublishPlay(ctx, ev); err != nil {
			log.Printf("publish play event slug=%q: %v", slug, err)
		}
	}

	return Resolution{
		AssetID:     asset.ID,
		AccountID:   asset.AccountID,
		Slug:        *asset.PublicSlug,
		URL:         asset.AudioURL,
		ContentType: ContentTypeFor(asset.AudioURL),
		Plays:       usage.Plays,
		Limit:       usage.Limit,
	}, nil
}

func (g Gateway) clock() time.Time {
	if g.now != nil {
		return g.now().UTC()
	}
	return time.Now().UTC()
}

func (g Gateway) window() time.Duration {
	if g.Window > 0 {
		return g.Window
	}
	return domain.DefaultMonthlyWindow
}
