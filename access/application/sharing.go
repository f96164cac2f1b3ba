package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"public-audio-gateway/access/domain"

	"github.com/google/uuid"
)

const (
	slugAlphabet     = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugLength       = 8
	slugMaxAttempts  = 10
	publicAudioRoute = "/api/v/"
)

// Sharing liga/desliga o compartilhamento público de assets.
type Sharing struct {
	Accounts domain.AccountRepository
	Assets   domain.AssetRepository
	BaseURL  string

	// NewSlug gera candidatos; nil usa GenerateSlug.
	NewSlug func() (string, error)
}

type ShareResult struct {
	Public bool
	Slug   string
	URL    string
}

func (s Sharing) List(ctx context.Context, accountID uuid.UUID) ([]domain.Asset, error) {
	return s.Assets.ListAssets(ctx, accountID)
}

// Toggle inverte o estado de compartilhamento de um asset da conta.
// Ao despublicar o slug é descartado; ao publicar reaproveita o slug
// existente ou gera um novo, respeitando o limite de assets públicos.
func (s Sharing) Toggle(ctx context.Context, accountID, assetID uuid.UUID) (ShareResult, error) {
	asset, err := s.Assets.FindAsset(ctx, assetID)
	if errors.Is(err, domain.ErrAssetNotFound) {
		return ShareResult{}, domain.ErrAssetNotFound
	}
	if err != nil {
		return ShareResult{}, fmt.Errorf("find asset: %w", err)
	}
	if asset.AccountID != accountID {
		return ShareResult{}, domain.ErrAssetNotFound
	}

	if asset.IsPublic {
		if err := s.Assets.SetSharing(ctx, assetID, nil); err != nil {
			return ShareResult{}, fmt.Errorf("unshare asset: %w", err)
		}
		return ShareResult{Public: false}, nil
	}

	acc, err := s.Accounts.FindAccount(ctx, accountID)
	if err != nil {
		return ShareResult{}, fmt.Errorf("find account: %w", err)
	}
	public, err := s.Assets.CountPublicAssets(ctx, accountID)
	if err != nil {
		return ShareResult{}, fmt.Errorf("count public assets: %w", err)
	}
	if public >= int64(acc.PublicAssetsLimit) {
		return ShareResult{}, domain.ErrPublicAssetLimit
	}

	slug := ""
	if asset.PublicSlug != nil {
		slug = *asset.PublicSlug
	}
	if slug == "" {
		slug, err = s.uniqueSlug(ctx)
		if err != nil {
			return ShareResult{}, err
		}
	}

	if err := s.Assets.SetSharing(ctx, assetID, &slug); err != nil {
		return ShareResult{}, fmt.Errorf("share asset: %w", err)
	}
	return ShareResult{Public: true, Slug: slug, URL: s.PublicURL(slug)}, nil
}

func (s Sharing) PublicURL(slug string) string {
	return strings.TrimRight(s.BaseURL, "/") + publicAudioRoute + slug
}

func (s Sharing) uniqueSlug(ctx context.Context) (string, error) {
	gen := s.NewSlug
	if gen == nil {
		gen = GenerateSlug
	}
	for i := 0; i < slugMaxAttempts; i++ {
		slug, err := gen()
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}
		taken, err := s.Assets.SlugTaken(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
	}
	return "", domain.ErrSlugExhausted
}

// GenerateSlug devolve 8 caracteres [a-z0-9] aleatórios.
func GenerateSlug() (string, error) {
	return slugFrom(rand.Reader)
}

// slugFrom descarta bytes >= 252 (7*36) para cada caractere ser equiprovável.
func slugFrom(r io.Reader) (string, error) {
	limit := 256 - 256%len(slugAlphabet)

	out := make([]byte, 0, slugLength)
	buf := make([]byte, slugLength)
	for len(out) < slugLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, slugAlphabet[int(b)%len(slugAlphabet)])
			if len(out) == slugLength {
				break
			}
		}
	}
	return string(out), nil
}
